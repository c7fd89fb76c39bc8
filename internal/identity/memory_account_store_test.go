package identity

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryAccountStoreCreateAndFind(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()
	created, createErr := store.CreateAccount(context.Background(), "User@Example.com", "hash-1")
	if createErr != nil {
		t.Fatalf("create failed: %v", createErr)
	}
	if created.ID == "" {
		t.Fatalf("expected generated account id")
	}
	if created.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}

	found, findErr := store.FindByEmail(context.Background(), "user@example.com")
	if findErr != nil {
		t.Fatalf("find failed: %v", findErr)
	}
	if found.ID != created.ID {
		t.Fatalf("expected same account, got %q vs %q", found.ID, created.ID)
	}

	if _, err := store.CreateAccount(context.Background(), "user@example.com", "hash-2"); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestMemoryAccountStoreGetAccountMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()
	if _, err := store.GetAccount(context.Background(), "absent"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMemoryAccountStoreUpsertGoogleAccount(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()

	first, firstErr := store.UpsertGoogleAccount(context.Background(), "sub-1", "user@example.com", "User One")
	if firstErr != nil {
		t.Fatalf("upsert failed: %v", firstErr)
	}
	second, secondErr := store.UpsertGoogleAccount(context.Background(), "sub-1", "user@example.com", "Renamed User")
	if secondErr != nil {
		t.Fatalf("second upsert failed: %v", secondErr)
	}
	if second.ID != first.ID {
		t.Fatalf("expected stable account id across upserts")
	}
	if second.DisplayName != "Renamed User" {
		t.Fatalf("expected refreshed display name, got %q", second.DisplayName)
	}
}

func TestMemoryAccountStoreUpsertLinksExistingEmail(t *testing.T) {
	t.Parallel()

	store := NewMemoryAccountStore()
	created, _ := store.CreateAccount(context.Background(), "user@example.com", "hash-1")

	linked, linkErr := store.UpsertGoogleAccount(context.Background(), "sub-9", "user@example.com", "User")
	if linkErr != nil {
		t.Fatalf("upsert failed: %v", linkErr)
	}
	if linked.ID != created.ID {
		t.Fatalf("expected google sign-in to attach to the password account")
	}
	if linked.GoogleSub != "sub-9" {
		t.Fatalf("expected linked google sub, got %q", linked.GoogleSub)
	}
}
