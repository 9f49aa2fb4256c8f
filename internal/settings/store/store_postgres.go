package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tally/internal/settings/models"
	id "tally/pkg/domain"
)

// PostgresStore keeps the settings singleton in a one-row table; the version
// column carries the optimistic concurrency check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context) (models.Settings, error) {
	var (
		settings  models.Settings
		updatedBy uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT purchase_limit, description, version, updated_at, updated_by
		 FROM settings WHERE singleton`).
		Scan(&settings.PurchaseLimit, &settings.Description, &settings.Version,
			&settings.UpdatedAt, &updatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, ErrNotFound
		}
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if updatedBy.Valid {
		by := id.UserID(updatedBy.UUID)
		settings.UpdatedBy = &by
	}
	return settings, nil
}

func (s *PostgresStore) SeedIfEmpty(ctx context.Context, settings models.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (singleton, purchase_limit, description, version, updated_at)
		 VALUES (TRUE, $1, $2, $3, $4)
		 ON CONFLICT (singleton) DO NOTHING`,
		settings.PurchaseLimit, settings.Description, settings.Version, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReplaceIfVersion(ctx context.Context, settings models.Settings, expected int64) error {
	var updatedBy uuid.NullUUID
	if settings.UpdatedBy != nil {
		updatedBy = uuid.NullUUID{UUID: uuid.UUID(*settings.UpdatedBy), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE settings
		 SET purchase_limit = $1, description = $2, version = $3, updated_at = $4, updated_by = $5
		 WHERE singleton AND version = $6`,
		settings.PurchaseLimit, settings.Description, settings.Version,
		settings.UpdatedAt, updatedBy, expected,
	)
	if err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}
