package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/policy"
	id "tally/pkg/domain"
	dErrors "tally/pkg/domain-errors"
)

func newTestUser(t *testing.T, limit int) *User {
	t.Helper()
	user, err := NewUser(id.NewUserID(), "alice@example.com", "Alice", "hash", limit, time.Now())
	require.NoError(t, err)
	return user
}

func scanTimes(t *testing.T, u *User, actor id.UserID, n int) []*Reward {
	t.Helper()
	var issued []*Reward
	for range n {
		if r := u.ApplyScan(actor, id.NewRewardID(), time.Now()); r != nil {
			issued = append(issued, r)
		}
	}
	return issued
}

func TestNewUser(t *testing.T) {
	t.Run("starts as customer with zero purchases", func(t *testing.T) {
		user := newTestUser(t, 10)
		assert.Equal(t, policy.RoleCustomer, user.Role)
		assert.Equal(t, 0, user.Purchases)
		assert.Equal(t, 10, user.PurchaseLimit)
		assert.False(t, user.IsRewardReady())
		assert.Nil(t, user.CurrentReward())
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), "", "Alice", "hash", 10, time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := NewUser(id.NewUserID(), "alice@example.com", "Alice", "hash", 0, time.Now())
		require.Error(t, err)
	})
}

func TestApplyScan(t *testing.T) {
	actor := id.NewUserID()

	t.Run("scans below limit accumulate in tally", func(t *testing.T) {
		user := newTestUser(t, 5)
		issued := scanTimes(t, user, actor, 4)

		assert.Empty(t, issued)
		assert.Equal(t, 4, user.Purchases)
		assert.Len(t, user.TallyScans, 4)
		assert.False(t, user.IsRewardReady())
	})

	t.Run("reaching the limit issues a reward", func(t *testing.T) {
		user := newTestUser(t, 5)
		issued := scanTimes(t, user, actor, 5)

		require.Len(t, issued, 1)
		assert.Equal(t, 5, user.Purchases)
		assert.True(t, user.IsRewardReady())
		assert.Empty(t, user.TallyScans, "tally moves into the reward's history")
		assert.Len(t, issued[0].ScanHistory, 5)
		assert.Nil(t, issued[0].ClaimedAt)
	})

	t.Run("scans while a reward is pending land in its history", func(t *testing.T) {
		user := newTestUser(t, 3)
		scanTimes(t, user, actor, 3)
		require.True(t, user.IsRewardReady())

		issued := scanTimes(t, user, actor, 2)

		assert.Empty(t, issued, "no second reward while one is pending")
		assert.Equal(t, 5, user.Purchases)
		assert.Len(t, user.Rewards, 1)
		assert.Len(t, user.CurrentReward().ScanHistory, 5)
		assert.Empty(t, user.TallyScans)
	})

	t.Run("records who scanned", func(t *testing.T) {
		user := newTestUser(t, 5)
		user.ApplyScan(actor, id.NewRewardID(), time.Now())
		require.Len(t, user.TallyScans, 1)
		assert.Equal(t, actor, user.TallyScans[0].ScannedBy)
	})
}

func TestRedemption(t *testing.T) {
	actor := id.NewUserID()

	t.Run("cannot redeem without a pending reward", func(t *testing.T) {
		user := newTestUser(t, 5)
		err := user.CanRedeem()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("redeeming claims the reward and resets the cycle", func(t *testing.T) {
		user := newTestUser(t, 3)
		scanTimes(t, user, actor, 3)
		require.NoError(t, user.CanRedeem())

		now := time.Now()
		reward := user.ApplyRedemption(now)

		require.NotNil(t, reward.ClaimedAt)
		assert.Equal(t, now, *reward.ClaimedAt)
		assert.Equal(t, 0, user.Purchases)
		assert.False(t, user.IsRewardReady())
		assert.Nil(t, user.CurrentReward())
	})

	t.Run("purchases beyond the limit carry into the next cycle", func(t *testing.T) {
		user := newTestUser(t, 3)
		scanTimes(t, user, actor, 3)
		scanTimes(t, user, actor, 2) // land in pending reward history

		user.ApplyRedemption(time.Now())

		assert.Equal(t, 2, user.Purchases)
		assert.False(t, user.IsRewardReady())
	})

	t.Run("claimed reward stays claimed", func(t *testing.T) {
		user := newTestUser(t, 2)
		scanTimes(t, user, actor, 2)
		user.ApplyRedemption(time.Now())

		err := user.CanRedeem()
		require.Error(t, err)
		assert.Len(t, user.Rewards, 1)
		assert.NotNil(t, user.Rewards[0].ClaimedAt)
	})

	t.Run("full accrue redeem accrue loop", func(t *testing.T) {
		user := newTestUser(t, 3)

		scanTimes(t, user, actor, 3)
		user.ApplyRedemption(time.Now())

		issued := scanTimes(t, user, actor, 3)
		require.Len(t, issued, 1)
		assert.Len(t, user.Rewards, 2)
		assert.True(t, user.IsRewardReady())

		user.ApplyRedemption(time.Now())
		assert.Equal(t, 0, user.Purchases)
		assert.Len(t, user.Rewards, 2)
		assert.False(t, user.IsRewardReady())
	})
}

func TestRoleChange(t *testing.T) {
	t.Run("same role is rejected", func(t *testing.T) {
		user := newTestUser(t, 5)
		err := user.CanChangeRole(policy.RoleCustomer)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("new role is applied", func(t *testing.T) {
		user := newTestUser(t, 5)
		require.NoError(t, user.CanChangeRole(policy.RoleAdmin))
		user.ApplyRoleChange(policy.RoleAdmin, time.Now())
		assert.Equal(t, policy.RoleAdmin, user.Role)
	})
}

func TestClone(t *testing.T) {
	actor := id.NewUserID()
	user := newTestUser(t, 3)
	scanTimes(t, user, actor, 4)

	clone := user.Clone()

	// Mutating the clone must not leak into the original.
	clone.ApplyScan(actor, id.NewRewardID(), time.Now())
	clone.Rewards[0].ScanHistory[0].ScannedBy = id.UserID(uuid.New())

	assert.Equal(t, 4, user.Purchases)
	assert.Equal(t, actor, user.Rewards[0].ScanHistory[0].ScannedBy)
	assert.Len(t, user.CurrentReward().ScanHistory, 4)
}
