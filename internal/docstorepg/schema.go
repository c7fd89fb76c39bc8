package docstorepg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    document_id TEXT NOT NULL,
    fields JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_unix BIGINT NOT NULL,
    PRIMARY KEY (collection, document_id)
);
`)
	return err
}
