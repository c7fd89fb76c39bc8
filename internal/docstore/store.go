// Package docstore persists keyed field documents grouped into collections.
// Profile documents live in the "users" collection keyed by account id.
package docstore

import (
	"context"
	"errors"
)

// Document is a flat set of named string fields.
type Document map[string]string

// Store reads and writes documents.
//
// Put with merge set updates only the supplied fields and preserves the
// rest; without merge the document is replaced wholesale. Get reports
// found=false for absent documents instead of an error.
type Store interface {
	Get(ctx context.Context, collection string, id string) (Document, bool, error)
	Put(ctx context.Context, collection string, id string, fields Document, merge bool) error
}

var (
	// ErrEmptyCollection indicates a blank collection name.
	ErrEmptyCollection = errors.New("docstore.empty_collection")
	// ErrEmptyDocumentID indicates a blank document id.
	ErrEmptyDocumentID = errors.New("docstore.empty_document_id")
)

func validateKey(collection string, id string) error {
	if collection == "" {
		return ErrEmptyCollection
	}
	if id == "" {
		return ErrEmptyDocumentID
	}
	return nil
}

func (document Document) clone() Document {
	if document == nil {
		return Document{}
	}
	copied := make(Document, len(document))
	for name, value := range document {
		copied[name] = value
	}
	return copied
}
