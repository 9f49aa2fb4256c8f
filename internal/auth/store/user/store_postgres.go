package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tally/internal/auth/models"
	id "tally/pkg/domain"
	"tally/internal/policy"
)

// PostgresStore persists user aggregates in postgres. Execute serializes
// per-user mutation with a row lock (SELECT ... FOR UPDATE).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, name, password_hash, role, purchases, purchase_limit, version, created_at, updated_at`

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(user.ID), user.Email, user.Name, user.PasswordHash, string(user.Role),
		user.Purchases, user.PurchaseLimit, user.Version, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.loadUser(ctx, s.db, `WHERE id = $1`, uuid.UUID(userID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.loadUser(ctx, s.db, `WHERE email = lower($1)`, email)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if err := s.attachAccrual(ctx, s.db, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Execute opens a transaction, locks the user row, runs validate and mutate
// on the loaded aggregate, and writes the result back with a version bump.
// Serialization failures and pending-reward uniqueness races surface as
// sentinel.ErrConflict for the service-level bounded retry.
func (s *PostgresStore) Execute(ctx context.Context, userID id.UserID,
	validate func(*models.User) error,
	mutate func(*models.User)) (*models.User, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	user, err := s.loadUser(ctx, tx, `WHERE id = $1 FOR UPDATE`, uuid.UUID(userID))
	if err != nil {
		return nil, err
	}

	if err := validate(user); err != nil {
		return nil, err
	}
	mutate(user)
	user.Version++

	if err := s.persist(ctx, tx, user); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if isRetryable(err) {
			return nil, ErrWriteLost
		}
		return nil, fmt.Errorf("commit user mutation: %w", err)
	}
	return user, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) loadUser(ctx context.Context, q querier, where string, arg any) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	user, err := scanUserRow(row)
	if err != nil {
		return nil, err
	}
	if err := s.attachAccrual(ctx, q, user); err != nil {
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (*models.User, error) {
	var (
		user    models.User
		rawID   uuid.UUID
		rawRole string
	)
	err := row.Scan(&rawID, &user.Email, &user.Name, &user.PasswordHash, &rawRole,
		&user.Purchases, &user.PurchaseLimit, &user.Version, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.UserID(rawID)
	role, err := policy.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("stored role %q invalid: %w", rawRole, err)
	}
	user.Role = role
	return &user, nil
}

func (s *PostgresStore) attachAccrual(ctx context.Context, q querier, user *models.User) error {
	rewardRows, err := q.QueryContext(ctx,
		`SELECT id, issued_at, claimed_at FROM rewards
		 WHERE user_id = $1 ORDER BY issued_at`, uuid.UUID(user.ID))
	if err != nil {
		return fmt.Errorf("load rewards: %w", err)
	}
	defer rewardRows.Close()

	index := make(map[id.RewardID]int)
	for rewardRows.Next() {
		var (
			rawID     uuid.UUID
			issuedAt  time.Time
			claimedAt sql.NullTime
		)
		if err := rewardRows.Scan(&rawID, &issuedAt, &claimedAt); err != nil {
			return fmt.Errorf("scan reward: %w", err)
		}
		reward := models.Reward{ID: id.RewardID(rawID), IssuedAt: issuedAt}
		if claimedAt.Valid {
			t := claimedAt.Time
			reward.ClaimedAt = &t
		}
		index[reward.ID] = len(user.Rewards)
		user.Rewards = append(user.Rewards, reward)
	}
	if err := rewardRows.Err(); err != nil {
		return fmt.Errorf("load rewards: %w", err)
	}

	scanRows, err := q.QueryContext(ctx,
		`SELECT reward_id, scanned_by, scanned_at FROM scan_events
		 WHERE user_id = $1 ORDER BY scanned_at, id`, uuid.UUID(user.ID))
	if err != nil {
		return fmt.Errorf("load scan events: %w", err)
	}
	defer scanRows.Close()

	for scanRows.Next() {
		var (
			rewardID  uuid.NullUUID
			scannedBy uuid.UUID
			scannedAt time.Time
		)
		if err := scanRows.Scan(&rewardID, &scannedBy, &scannedAt); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		event := models.ScanEvent{ScannedBy: id.UserID(scannedBy), At: scannedAt}
		if rewardID.Valid {
			if i, ok := index[id.RewardID(rewardID.UUID)]; ok {
				user.Rewards[i].ScanHistory = append(user.Rewards[i].ScanHistory, event)
			}
			continue
		}
		user.TallyScans = append(user.TallyScans, event)
	}
	return scanRows.Err()
}

func (s *PostgresStore) persist(ctx context.Context, tx *sql.Tx, user *models.User) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET email = lower($2), name = $3, password_hash = $4, role = $5,
			purchases = $6, purchase_limit = $7, version = $8, updated_at = $9
		 WHERE id = $1`,
		uuid.UUID(user.ID), user.Email, user.Name, user.PasswordHash, string(user.Role),
		user.Purchases, user.PurchaseLimit, user.Version, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	for _, reward := range user.Rewards {
		var claimedAt sql.NullTime
		if reward.ClaimedAt != nil {
			claimedAt = sql.NullTime{Time: *reward.ClaimedAt, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rewards (id, user_id, issued_at, claimed_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET claimed_at = EXCLUDED.claimed_at`,
			uuid.UUID(reward.ID), uuid.UUID(user.ID), reward.IssuedAt, claimedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				// Another writer issued a pending reward concurrently.
				return ErrWriteLost
			}
			return fmt.Errorf("upsert reward: %w", err)
		}
	}

	// Scan events are append-only facts; rewrite the user's set from the
	// aggregate so tally scans that converted into a reward's history move
	// with it.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scan_events WHERE user_id = $1`, uuid.UUID(user.ID)); err != nil {
		return fmt.Errorf("clear scan events: %w", err)
	}
	insert := func(rewardID uuid.NullUUID, events []models.ScanEvent) error {
		for _, event := range events {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO scan_events (user_id, reward_id, scanned_by, scanned_at)
				 VALUES ($1, $2, $3, $4)`,
				uuid.UUID(user.ID), rewardID, uuid.UUID(event.ScannedBy), event.At,
			)
			if err != nil {
				return fmt.Errorf("insert scan event: %w", err)
			}
		}
		return nil
	}
	if err := insert(uuid.NullUUID{}, user.TallyScans); err != nil {
		return err
	}
	for _, reward := range user.Rewards {
		rid := uuid.NullUUID{UUID: uuid.UUID(reward.ID), Valid: true}
		if err := insert(rid, reward.ScanHistory); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure or deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
