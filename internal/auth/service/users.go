package service

import (
	"context"
	"errors"
	"time"

	"tally/internal/auth/models"
	userstore "tally/internal/auth/store/user"
	"tally/internal/platform/fetch"
	"tally/internal/policy"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	audit "tally/pkg/platform/audit"
	"tally/pkg/requestcontext"
)

// Profile returns a user's full loyalty profile.
func (s *Service) Profile(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// ListUsers returns every account. With a cache configured the listing is
// eventually consistent relative to the store; the second return value
// reports staleness.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, bool, error) {
	if s.usersCache != nil {
		res := s.usersCache.Get(ctx)
		if res.Status == fetch.StatusReady {
			return res.Value, res.Stale, nil
		}
		if res.Err != nil {
			return nil, false, dErrors.Wrap(res.Err, dErrors.CodeInternal, "failed to list users")
		}
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, false, nil
}

// UpdateUserRole assigns a new role to a user. Only holders of the
// change-roles capability (super admins) may call it. The target's active
// sessions are revoked so stale role claims die with them.
func (s *Service) UpdateUserRole(ctx context.Context, actorID id.UserID, actorRole policy.Role, targetID id.UserID, newRole policy.Role) (*models.User, error) {
	if !policy.Can(actorRole, policy.ActionChangeRoles) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not change user roles")
	}

	now := requestcontext.Now(ctx)
	var unchanged bool

	user, err := s.users.Execute(ctx, targetID,
		func(u *models.User) error {
			if err := u.CanChangeRole(newRole); err != nil {
				unchanged = true
			}
			return nil
		},
		func(u *models.User) {
			if !unchanged {
				u.ApplyRoleChange(newRole, now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}
	if unchanged {
		return user, nil
	}

	s.revokeUserSessions(ctx, targetID, now)
	s.invalidateUsersCache(ctx)

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    string(audit.EventRoleChanged),
		UserID:    targetID,
		ActorID:   actorID.String(),
		Reason:    string(newRole),
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: now,
	})

	s.logger.InfoContext(ctx, "user role changed",
		"actor_id", actorID.String(),
		"user_id", targetID.String(),
		"new_role", string(newRole),
	)
	return user, nil
}

// revokeUserSessions best-effort revokes every active session for a user.
// Individual failures are logged and skipped so one bad session does not
// leave the rest alive.
func (s *Service) revokeUserSessions(ctx context.Context, userID id.UserID, now time.Time) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list sessions for revocation",
			"user_id", userID.String(), "error", err)
		return
	}
	for _, session := range sessions {
		if !session.IsActive(now) {
			continue
		}
		_, err := s.sessions.Execute(ctx, session.ID,
			func(sess *models.Session) error { return sess.CanRevoke() },
			func(sess *models.Session) { sess.ApplyRevocation(now) },
		)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke session",
				"session_id", session.ID.String(), "error", err)
		}
	}
}
