// Package postgres owns the database handle and schema bootstrap for the
// postgres-backed stores.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect opens and pings a postgres connection.
func Connect(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// InitializeSchema creates the tables if they don't exist. Order respects
// foreign key dependencies.
func InitializeSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('customer', 'admin', 'super_admin')),
			purchases INTEGER NOT NULL DEFAULT 0 CHECK (purchases >= 0),
			purchase_limit INTEGER NOT NULL CHECK (purchase_limit > 0),
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rewards (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			issued_at TIMESTAMPTZ NOT NULL,
			claimed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS rewards_user_idx ON rewards (user_id)`,
		// At most one unclaimed reward per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS rewards_pending_unique
			ON rewards (user_id) WHERE claimed_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS scan_events (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reward_id UUID REFERENCES rewards(id) ON DELETE CASCADE,
			scanned_by UUID NOT NULL,
			scanned_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS scan_events_user_idx ON scan_events (user_id)`,
		`CREATE TABLE IF NOT EXISTS settings (
			singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
			purchase_limit INTEGER NOT NULL CHECK (purchase_limit > 0),
			description TEXT NOT NULL DEFAULT '',
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL,
			updated_by UUID
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}
	return nil
}
