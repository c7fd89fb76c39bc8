package docstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreGetAbsentDocument(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, found, err := store.Get(context.Background(), "users", "absent")
	if err != nil {
		t.Fatalf("absent document must not error: %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
}

func TestMemoryStoreMergePreservesUntouchedFields(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "users", "user-1", Document{"displayName": "User One", "profileImageUrl": "https://images.example.com/a.png"}, false); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put(ctx, "users", "user-1", Document{"profileImageUrl": "https://images.example.com/b.png", "currentFileName": "b.png"}, true); err != nil {
		t.Fatalf("merge put failed: %v", err)
	}

	document, found, getErr := store.Get(ctx, "users", "user-1")
	if getErr != nil || !found {
		t.Fatalf("expected document, got found=%v err=%v", found, getErr)
	}
	if document["displayName"] != "User One" {
		t.Fatalf("merge must preserve untouched fields, got %v", document)
	}
	if document["profileImageUrl"] != "https://images.example.com/b.png" || document["currentFileName"] != "b.png" {
		t.Fatalf("merge must apply supplied fields, got %v", document)
	}
}

func TestMemoryStoreReplaceDropsUnlistedFields(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, "users", "user-1", Document{"displayName": "User One"}, false)
	if err := store.Put(ctx, "users", "user-1", Document{"currentFileName": "c.png"}, false); err != nil {
		t.Fatalf("replace put failed: %v", err)
	}

	document, _, _ := store.Get(ctx, "users", "user-1")
	if _, still := document["displayName"]; still {
		t.Fatalf("replace must drop unlisted fields, got %v", document)
	}
}

func TestMemoryStoreRejectsBlankKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, _, err := store.Get(context.Background(), "", "user-1"); !errors.Is(err, ErrEmptyCollection) {
		t.Fatalf("expected ErrEmptyCollection, got %v", err)
	}
	if err := store.Put(context.Background(), "users", "", Document{}, true); !errors.Is(err, ErrEmptyDocumentID) {
		t.Fatalf("expected ErrEmptyDocumentID, got %v", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Put(ctx, "users", "user-1", Document{"currentFileName": "a.png"}, false)

	document, _, _ := store.Get(ctx, "users", "user-1")
	document["currentFileName"] = "tampered.png"

	fresh, _, _ := store.Get(ctx, "users", "user-1")
	if fresh["currentFileName"] != "a.png" {
		t.Fatalf("mutating a returned document must not affect the store")
	}
}
