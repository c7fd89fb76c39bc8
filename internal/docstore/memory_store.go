package docstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory document store intended for tests and dev.
type MemoryStore struct {
	mutex     sync.Mutex
	documents map[string]Document
}

// NewMemoryStore creates a new in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{documents: make(map[string]Document)}
}

// Get returns a copy of the document, or found=false when it is absent.
func (store *MemoryStore) Get(ctx context.Context, collection string, id string) (Document, bool, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, false, err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	document, found := store.documents[collection+"/"+id]
	if !found {
		return nil, false, nil
	}
	return document.clone(), true, nil
}

// Put writes the supplied fields, merging into any existing document when
// merge is set.
func (store *MemoryStore) Put(ctx context.Context, collection string, id string, fields Document, merge bool) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	key := collection + "/" + id
	if !merge {
		store.documents[key] = fields.clone()
		return nil
	}
	merged := store.documents[key].clone()
	for name, value := range fields {
		merged[name] = value
	}
	store.documents[key] = merged
	return nil
}
