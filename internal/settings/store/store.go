// Package store persists the global settings singleton.
package store

import (
	"context"

	"tally/internal/settings/models"
	"tally/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// Store holds exactly one settings record.
type Store interface {
	Get(ctx context.Context) (models.Settings, error)
	// SeedIfEmpty writes the given record only when none exists yet.
	SeedIfEmpty(ctx context.Context, settings models.Settings) error
	// ReplaceIfVersion atomically swaps the record when the stored version
	// matches expected; a mismatch returns sentinel.ErrConflict.
	ReplaceIfVersion(ctx context.Context, settings models.Settings, expected int64) error
}
