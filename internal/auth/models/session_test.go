package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/policy"
	id "tally/pkg/domain"
)

func TestSessionLifecycle(t *testing.T) {
	now := time.Now()
	session := NewSession(id.NewSessionID(), id.NewUserID(), policy.RoleCustomer, "Chrome on Mac OS X", now, time.Hour)

	t.Run("fresh session is active", func(t *testing.T) {
		assert.True(t, session.IsActive(now))
		assert.True(t, session.IsActive(now.Add(59*time.Minute)))
	})

	t.Run("expired session is inactive", func(t *testing.T) {
		assert.False(t, session.IsActive(now.Add(2*time.Hour)))
	})

	t.Run("revocation is permanent", func(t *testing.T) {
		require.NoError(t, session.CanRevoke())
		session.ApplyRevocation(now)

		assert.False(t, session.IsActive(now))
		assert.Error(t, session.CanRevoke())
		require.NotNil(t, session.RevokedAt)
		assert.Equal(t, now, *session.RevokedAt)
	})
}
