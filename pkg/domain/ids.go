// Package domain defines typed identifiers shared across features.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-type assignment (a RewardID can never be passed where a UserID
// is expected). Parse functions enforce the trust-boundary invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "tally/pkg/domain-errors"
)

type UserID uuid.UUID

type SessionID uuid.UUID

type RewardID uuid.UUID

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewRewardID() RewardID   { return RewardID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id RewardID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RewardID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Named types do not inherit uuid.UUID's marshalling, so each implements
// encoding.TextMarshaler explicitly to keep the canonical string form on
// the wire.

func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id RewardID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SessionID(u)
	return nil
}

func (id *RewardID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = RewardID(u)
	return nil
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseSessionID parses and validates a session ID from its string form.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// ParseRewardID parses and validates a reward ID from its string form.
func ParseRewardID(s string) (RewardID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RewardID{}, err
	}
	return RewardID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
