package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Every statement is idempotent so the runner
// can execute on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			google_id TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			profile_picture TEXT NOT NULL DEFAULT '',
			plan TEXT NOT NULL DEFAULT 'free',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL DEFAULT 'API Key',
			key_hash TEXT NOT NULL UNIQUE,
			key_prefix TEXT NOT NULL,
			key_last4 TEXT NOT NULL,
			scopes TEXT[] NOT NULL DEFAULT '{}',
			requests_per_minute INT NOT NULL DEFAULT 60,
			requests_per_day INT NOT NULL DEFAULT 1000,
			total_requests BIGINT NOT NULL DEFAULT 0,
			last_used_at TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys (user_id)`,
		`CREATE TABLE IF NOT EXISTS connected_accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			platform_account_id TEXT NOT NULL,
			platform_username TEXT NOT NULL DEFAULT '',
			profile_picture_url TEXT NOT NULL DEFAULT '',
			token_ciphertext TEXT NOT NULL,
			token_iv TEXT NOT NULL,
			token_tag TEXT NOT NULL,
			token_expires_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'active',
			last_used_at TIMESTAMPTZ,
			last_error_message TEXT,
			last_error_code TEXT,
			last_error_at TIMESTAMPTZ,
			auto_post BOOLEAN NOT NULL DEFAULT TRUE,
			default_hashtags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, platform, platform_account_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_connected_accounts_status ON connected_accounts (status)`,
		`CREATE TABLE IF NOT EXISTS contents (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			title TEXT NOT NULL DEFAULT '',
			body_text TEXT NOT NULL DEFAULT '',
			media JSONB NOT NULL DEFAULT '[]',
			ai_generation JSONB NOT NULL DEFAULT '{}',
			tags TEXT[] NOT NULL DEFAULT '{}',
			folder TEXT NOT NULL DEFAULT 'Uncategorized',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contents_user_status ON contents (user_id, status)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content_id BIGINT REFERENCES contents(id) ON DELETE SET NULL,
			account_id BIGINT NOT NULL REFERENCES connected_accounts(id) ON DELETE CASCADE,
			platform TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			request_id TEXT NOT NULL DEFAULT '',
			api_key_id BIGINT REFERENCES api_keys(id) ON DELETE SET NULL,
			scheduled_for TIMESTAMPTZ,
			published_at TIMESTAMPTZ,
			platform_post_id TEXT,
			platform_post_url TEXT,
			content_text TEXT NOT NULL DEFAULT '',
			media_urls TEXT[] NOT NULL DEFAULT '{}',
			hashtags TEXT[] NOT NULL DEFAULT '{}',
			impressions INT NOT NULL DEFAULT 0,
			reach INT NOT NULL DEFAULT 0,
			likes INT NOT NULL DEFAULT 0,
			comments INT NOT NULL DEFAULT 0,
			shares INT NOT NULL DEFAULT 0,
			clicks INT NOT NULL DEFAULT 0,
			engagement DOUBLE PRECISION NOT NULL DEFAULT 0,
			analytics_updated_at TIMESTAMPTZ,
			error_message TEXT,
			error_code TEXT,
			error_at TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_status ON posts (user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_due ON posts (scheduled_for, status)`,
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i, err)
		}
	}
	return nil
}
