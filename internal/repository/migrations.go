package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		token CHAR(64) NOT NULL UNIQUE,
		abilities TEXT[] NOT NULL DEFAULT '{}',
		last_used_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_tokens_user ON api_tokens(user_id)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		uuid UUID NOT NULL UNIQUE,
		name TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		authorized BOOLEAN NOT NULL DEFAULT false,
		image TEXT,
		data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		uuid UUID NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'draft',
		schedule_status TEXT NOT NULL DEFAULT 'pending',
		scheduled_at TIMESTAMPTZ,
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status, schedule_status)`,
	`CREATE TABLE IF NOT EXISTS post_accounts (
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		errors JSONB,
		provider_post_id TEXT,
		PRIMARY KEY (post_id, account_id)
	)`,
	`CREATE TABLE IF NOT EXISTS post_versions (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		account_id BIGINT,
		is_original BOOLEAN NOT NULL DEFAULT false,
		content JSONB NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_versions_post ON post_versions(post_id)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		hex_color TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT tags_name_unique UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS tag_post (
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		PRIMARY KEY (tag_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS media (
		id BIGSERIAL PRIMARY KEY,
		uuid UUID NOT NULL UNIQUE,
		name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		disk TEXT NOT NULL,
		path TEXT NOT NULL,
		size BIGINT NOT NULL,
		size_total BIGINT NOT NULL,
		conversions JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("running migration %d: %w", i, err)
		}
	}
	return nil
}
