package models

import (
	"time"

	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
	"tally/internal/policy"
)

// User is the aggregate root for a loyalty account: identity, role, and the
// accrual state that purchases and rewards flow through.
//
// Invariants:
//   - Purchases is never negative
//   - PurchaseLimit is positive; it is a snapshot taken from global settings
//     at registration, not a live reference
//   - Rewards is append-only; a reward is claimed at most once, monotonically
//   - At most one unclaimed reward exists at any time
//   - TallyScans holds scans credited since the last reward was issued; on
//     issuance they become the new reward's ScanHistory
//
// Mutations to accrual state must go through a store Execute call so
// concurrent scans are serialized per user.
type User struct {
	ID            id.UserID   `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	PasswordHash  string      `json:"-"`
	Role          policy.Role `json:"role"`
	Purchases     int         `json:"purchases"`
	PurchaseLimit int         `json:"purchase_limit"`
	TallyScans    []ScanEvent `json:"tally_scans,omitempty"`
	Rewards       []Reward    `json:"rewards,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	// Version supports optimistic concurrency in the postgres store.
	Version int64 `json:"-"`
}

// NewUser constructs a freshly registered account: customer role, zero
// purchases, limit snapshotted from current global settings.
func NewUser(userID id.UserID, email, name, passwordHash string, purchaseLimit int, now time.Time) (*User, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if purchaseLimit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "purchase limit must be positive")
	}
	return &User{
		ID:            userID,
		Email:         email,
		Name:          name,
		PasswordHash:  passwordHash,
		Role:          policy.RoleCustomer,
		Purchases:     0,
		PurchaseLimit: purchaseLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CurrentReward returns the pending unclaimed reward, or nil while accruing.
func (u *User) CurrentReward() *Reward {
	if len(u.Rewards) == 0 {
		return nil
	}
	last := &u.Rewards[len(u.Rewards)-1]
	if last.ClaimedAt == nil {
		return last
	}
	return nil
}

// IsRewardReady reports whether an unclaimed reward awaits redemption.
func (u *User) IsRewardReady() bool {
	return u.CurrentReward() != nil
}

// ApplyScan credits one purchase scanned by actor. While a reward is pending
// the scan lands in its history; otherwise it joins the running tally, and
// when the tally first reaches the limit the pending scans convert into a
// new unclaimed reward. Returns the issued reward, or nil.
//
// Call only inside a store Execute mutation.
func (u *User) ApplyScan(actor id.UserID, rewardID id.RewardID, now time.Time) *Reward {
	u.Purchases++
	u.UpdatedAt = now
	event := ScanEvent{ScannedBy: actor, At: now}

	if pending := u.CurrentReward(); pending != nil {
		pending.ScanHistory = append(pending.ScanHistory, event)
		return nil
	}

	u.TallyScans = append(u.TallyScans, event)
	if u.Purchases < u.PurchaseLimit {
		return nil
	}

	reward := Reward{
		ID:          rewardID,
		IssuedAt:    now,
		ScanHistory: u.TallyScans,
	}
	u.Rewards = append(u.Rewards, reward)
	u.TallyScans = nil
	return u.CurrentReward()
}

// CanRedeem checks that an unclaimed reward exists.
func (u *User) CanRedeem() error {
	if u.CurrentReward() == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "no unclaimed reward")
	}
	return nil
}

// ApplyRedemption claims the pending reward and resets purchases for the
// next accrual cycle. Purchases beyond the limit carry over; the count never
// goes negative. Call CanRedeem first, inside a store Execute mutation.
func (u *User) ApplyRedemption(now time.Time) *Reward {
	reward := u.CurrentReward()
	claimed := now
	reward.ClaimedAt = &claimed

	u.Purchases -= u.PurchaseLimit
	if u.Purchases < 0 {
		u.Purchases = 0
	}
	// Scans beyond the limit were recorded against the redeemed reward;
	// the carried count starts the next cycle's tally.
	u.UpdatedAt = now
	return reward
}

// Clone returns a deep copy so store reads never alias live state.
func (u *User) Clone() *User {
	c := *u
	c.TallyScans = append([]ScanEvent(nil), u.TallyScans...)
	c.Rewards = make([]Reward, len(u.Rewards))
	for i, r := range u.Rewards {
		c.Rewards[i] = r
		c.Rewards[i].ScanHistory = append([]ScanEvent(nil), r.ScanHistory...)
		if r.ClaimedAt != nil {
			claimed := *r.ClaimedAt
			c.Rewards[i].ClaimedAt = &claimed
		}
	}
	return &c
}

// CanChangeRole checks the role transition is meaningful.
func (u *User) CanChangeRole(newRole policy.Role) error {
	if u.Role == newRole {
		return dErrors.New(dErrors.CodeInvariantViolation, "user already has this role")
	}
	return nil
}

// ApplyRoleChange assigns the new role.
func (u *User) ApplyRoleChange(newRole policy.Role, now time.Time) {
	u.Role = newRole
	u.UpdatedAt = now
}
