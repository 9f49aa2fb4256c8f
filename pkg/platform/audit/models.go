package audit

import (
	"context"
	"time"

	id "tally/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and sink routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// account creation/deletion, role changes, settings changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// failed logins, forbidden operations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility: logins, scans, redemptions.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the subject of the event (the account acted upon).
	UserID id.UserID
	Action string
	Reason string
	// ActorID tracks who performed the action when different from UserID,
	// e.g. staff scanning a customer's purchase.
	ActorID   string
	Email     string
	RequestID string
}

type AuditEvent string

const (
	EventUserRegistered   AuditEvent = "user_registered"
	EventLoginSucceeded   AuditEvent = "login_succeeded"
	EventLoginFailed      AuditEvent = "login_failed"
	EventSessionRevoked   AuditEvent = "session_revoked"
	EventRoleChanged      AuditEvent = "role_changed"
	EventPurchaseRecorded AuditEvent = "purchase_recorded"
	EventRewardIssued     AuditEvent = "reward_issued"
	EventRewardRedeemed   AuditEvent = "reward_redeemed"
	EventSettingsUpdated  AuditEvent = "settings_updated"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
