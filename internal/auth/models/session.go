package models

import (
	"time"

	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	"tally/internal/policy"
)

// SessionStatus is the lifecycle state of a client session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session models an authenticated client session. The access token's jti is
// the session ID, so revoking the session invalidates the token. Device is
// the display name parsed from the client's User-Agent at login.
type Session struct {
	ID        id.SessionID  `json:"id"`
	UserID    id.UserID     `json:"user_id"`
	Role      policy.Role   `json:"role"`
	Device    string        `json:"device"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	RevokedAt *time.Time    `json:"revoked_at,omitempty"`
}

func NewSession(sessionID id.SessionID, userID id.UserID, role policy.Role, device string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        sessionID,
		UserID:    userID,
		Role:      role,
		Device:    device,
		Status:    SessionStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsActive reports whether the session is usable at the given time.
func (s *Session) IsActive(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}

// CanRevoke checks the session has not already been revoked.
func (s *Session) CanRevoke() error {
	if s.Status == SessionStatusRevoked {
		return dErrors.New(dErrors.CodeInvariantViolation, "session already revoked")
	}
	return nil
}

// ApplyRevocation transitions the session to revoked. Call CanRevoke first.
func (s *Session) ApplyRevocation(now time.Time) {
	s.Status = SessionStatusRevoked
	revoked := now
	s.RevokedAt = &revoked
}
