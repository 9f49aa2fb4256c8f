package models

import (
	"time"

	id "tally/pkg/domain"
)

// Reward is a claimable benefit issued when accrued purchases reach the
// limit. ClaimedAt nil means issued but not yet redeemed; the transition to
// claimed happens exactly once and is never reversed.
type Reward struct {
	ID          id.RewardID `json:"reward_id"`
	IssuedAt    time.Time   `json:"issued_at"`
	ClaimedAt   *time.Time  `json:"claimed_at,omitempty"`
	ScanHistory []ScanEvent `json:"scan_history,omitempty"`
}

// IsClaimed reports whether the reward has been redeemed.
func (r *Reward) IsClaimed() bool {
	return r.ClaimedAt != nil
}

// ScanEvent is an immutable fact recording that an actor credited a purchase.
// Append-only, never deleted.
type ScanEvent struct {
	ScannedBy id.UserID `json:"scanned_by"`
	At        time.Time `json:"timestamp"`
}
