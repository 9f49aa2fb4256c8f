package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/auth/device"
	"tally/internal/auth/models"
	sessionstore "tally/internal/auth/store/session"
	userstore "tally/internal/auth/store/user"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	audit "tally/pkg/platform/audit"
	"tally/pkg/requestcontext"
)

// LoginResult carries the minted token and the authenticated profile.
type LoginResult struct {
	AccessToken string
	ExpiresIn   int
	User        *models.User
}

// Login validates credentials, opens a session tagged with the client's
// device name, and mints an access token. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, emailAddr, password, userAgent string) (*LoginResult, error) {
	start := time.Now()

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			s.recordLoginFailure(ctx, emailAddr, "unknown email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLoginFailure(ctx, emailAddr, "password mismatch")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	session := models.NewSession(id.NewSessionID(), user.ID, user.Role, device.ParseUserAgent(userAgent), now, s.tokenTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.GenerateAccessToken(uuid.UUID(user.ID), uuid.UUID(session.ID), string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	if s.metrics != nil {
		s.metrics.Logins.Inc()
		s.metrics.ObserveLogin(start)
	}

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Action:    string(audit.EventLoginSucceeded),
		UserID:    user.ID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: now,
	})

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		User:        user,
	}, nil
}

// Logout revokes the session backing the caller's token. Idempotent: an
// already-revoked or unknown session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "session required")
	}

	now := requestcontext.Now(ctx)
	var alreadyRevoked bool

	session, err := s.sessions.Execute(ctx, sessionID,
		func(sess *models.Session) error {
			if err := sess.CanRevoke(); err != nil {
				alreadyRevoked = true
			}
			return nil
		},
		func(sess *models.Session) {
			if !alreadyRevoked {
				sess.ApplyRevocation(now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	if alreadyRevoked {
		return nil
	}

	s.logAudit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Action:    string(audit.EventSessionRevoked),
		UserID:    session.UserID,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: now,
	})
	return nil
}

// IsSessionActive satisfies the auth middleware's SessionChecker.
func (s *Service) IsSessionActive(ctx context.Context, sessionID id.SessionID) (bool, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return session.IsActive(requestcontext.Now(ctx)), nil
}

func (s *Service) recordLoginFailure(ctx context.Context, emailAddr, reason string) {
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
	s.logAudit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Action:    string(audit.EventLoginFailed),
		Email:     emailAddr,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	s.logger.WarnContext(ctx, "login failed", "reason", reason)
}
