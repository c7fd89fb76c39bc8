package docstore

import (
	"context"
	"testing"
)

func newSQLiteDocumentStore(t *testing.T) *DatabaseStore {
	t.Helper()
	store, err := NewDatabaseStore(context.Background(), "sqlite://file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	return store
}

func TestDatabaseStoreDriverLabel(t *testing.T) {
	store := newSQLiteDocumentStore(t)
	if store.Driver() != "sqlite" {
		t.Fatalf("expected sqlite driver label, got %q", store.Driver())
	}
}

func TestDatabaseStoreMergeRoundTrip(t *testing.T) {
	store := newSQLiteDocumentStore(t)
	ctx := context.Background()

	_, found, getErr := store.Get(ctx, "users", "db-absent")
	if getErr != nil || found {
		t.Fatalf("expected clean absent read, got found=%v err=%v", found, getErr)
	}

	if err := store.Put(ctx, "users", "db-user-1", Document{"displayName": "User One"}, false); err != nil {
		t.Fatalf("initial put failed: %v", err)
	}
	if err := store.Put(ctx, "users", "db-user-1", Document{"currentFileName": "a.png"}, true); err != nil {
		t.Fatalf("merge put failed: %v", err)
	}

	document, found, getErr := store.Get(ctx, "users", "db-user-1")
	if getErr != nil || !found {
		t.Fatalf("expected document, got found=%v err=%v", found, getErr)
	}
	if document["displayName"] != "User One" || document["currentFileName"] != "a.png" {
		t.Fatalf("unexpected merged document: %v", document)
	}

	if err := store.Put(ctx, "users", "db-user-1", Document{"currentFileName": "b.png"}, false); err != nil {
		t.Fatalf("replace put failed: %v", err)
	}
	document, _, _ = store.Get(ctx, "users", "db-user-1")
	if _, still := document["displayName"]; still {
		t.Fatalf("replace must drop unlisted fields, got %v", document)
	}
}
