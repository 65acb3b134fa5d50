package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// File records are append-only: there is deliberately no UPDATE or DELETE
// path for the files table anywhere in this codebase.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name          text NOT NULL,
		email         text NOT NULL UNIQUE,
		password_hash text NOT NULL DEFAULT '',
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS session_tokens (
		token_hash text PRIMARY KEY,
		user_id    uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id   uuid NOT NULL REFERENCES users(id),
		name       text NOT NULL,
		file_type  text NOT NULL,
		content    text NOT NULL,
		digest     text,
		blob_key   text,
		size_bytes bigint NOT NULL DEFAULT 0,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS files_owner_created_idx ON files (owner_id, created_at)`,
}

// Migrate ensures the schema exists. Statements are idempotent so the server
// can run them unconditionally at boot.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
