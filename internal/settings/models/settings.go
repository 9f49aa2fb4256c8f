package models

import (
	"time"

	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
)

// Settings is the single system-wide configuration record. It is explicitly
// versioned: writers replace the whole record conditionally on Version, so a
// lost race is detectable and no reader ever sees a partial update.
//
// The record is always retrieved and passed by value into the operations
// that need it, never read from ambient global state.
type Settings struct {
	PurchaseLimit int        `json:"purchase_limit"`
	Description   string     `json:"description"`
	Version       int64      `json:"version"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UpdatedBy     *id.UserID `json:"updated_by,omitempty"`
}

// Validate enforces the record's invariants.
func (s Settings) Validate() error {
	if s.PurchaseLimit <= 0 {
		return dErrors.New(dErrors.CodeValidation, "purchase limit must be positive")
	}
	return nil
}

// Defaults builds the record seeded on first boot.
func Defaults(purchaseLimit int, now time.Time) Settings {
	return Settings{
		PurchaseLimit: purchaseLimit,
		Description:   "Collect purchases to unlock your next reward.",
		Version:       1,
		UpdatedAt:     now,
	}
}
