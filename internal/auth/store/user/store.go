// Package user defines the user store contract shared by the in-memory and
// postgres implementations.
package user

import (
	"context"

	"tally/internal/auth/models"
	id "tally/pkg/domain"
	"tally/pkg/platform/sentinel"
)

// Store-level aliases keep call sites consistent across implementations.
var (
	ErrNotFound   = sentinel.ErrNotFound
	ErrEmailTaken = sentinel.ErrAlreadyUsed
	ErrWriteLost  = sentinel.ErrConflict
)

// Store persists user aggregates.
//
// Execute is the only mutation path for accrual state: it loads the user,
// runs validate and mutate while holding the user's write lock (a mutex in
// memory, a row lock in postgres), and persists the result atomically.
// Concurrent Execute calls for one user are serialized; a lost conditional
// write surfaces as sentinel.ErrConflict and may be retried with fresh state.
type Store interface {
	// CreateIfEmailAvailable inserts the user unless the email is taken,
	// in which case it returns sentinel.ErrAlreadyUsed.
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Execute(ctx context.Context, userID id.UserID,
		validate func(*models.User) error,
		mutate func(*models.User)) (*models.User, error)
}
