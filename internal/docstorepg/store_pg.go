package docstorepg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tyemirov/picdash/internal/docstore"
)

// PostgresStore persists documents in PostgreSQL with jsonb fields. Merge
// writes use the jsonb || operator so concurrent merges never lose fields.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres document store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get returns the document, or found=false when it is absent.
func (store *PostgresStore) Get(ctx context.Context, collection string, id string) (docstore.Document, bool, error) {
	var encoded []byte
	row := store.pool.QueryRow(ctx, `
SELECT fields
FROM documents
WHERE collection = $1 AND document_id = $2
`, collection, id)
	if scanErr := row.Scan(&encoded); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, scanErr
	}
	var document docstore.Document
	if err := json.Unmarshal(encoded, &document); err != nil {
		return nil, false, err
	}
	return document, true, nil
}

// Put writes the supplied fields, merging into any existing document when
// merge is set.
func (store *PostgresStore) Put(ctx context.Context, collection string, id string, fields docstore.Document, merge bool) error {
	if fields == nil {
		fields = docstore.Document{}
	}
	encoded, marshalErr := json.Marshal(fields)
	if marshalErr != nil {
		return marshalErr
	}
	nowUnix := time.Now().UTC().Unix()

	if merge {
		_, err := store.pool.Exec(ctx, `
INSERT INTO documents (collection, document_id, fields, updated_unix)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (collection, document_id)
DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_unix = EXCLUDED.updated_unix
`, collection, id, encoded, nowUnix)
		return err
	}
	_, err := store.pool.Exec(ctx, `
INSERT INTO documents (collection, document_id, fields, updated_unix)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (collection, document_id)
DO UPDATE SET fields = EXCLUDED.fields, updated_unix = EXCLUDED.updated_unix
`, collection, id, encoded, nowUnix)
	return err
}
