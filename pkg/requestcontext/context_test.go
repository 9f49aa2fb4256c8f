package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "tally/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	t.Run("zero values when unset", func(t *testing.T) {
		assert.Equal(t, id.UserID{}, UserID(ctx))
		assert.Equal(t, id.SessionID{}, SessionID(ctx))
		assert.Empty(t, Role(ctx))
		assert.Empty(t, RequestID(ctx))
	})

	t.Run("round trips", func(t *testing.T) {
		userID := id.NewUserID()
		sessionID := id.NewSessionID()

		ctx := WithUserID(ctx, userID)
		ctx = WithSessionID(ctx, sessionID)
		ctx = WithRole(ctx, "admin")
		ctx = WithRequestID(ctx, "req-1")

		assert.Equal(t, userID, UserID(ctx))
		assert.Equal(t, sessionID, SessionID(ctx))
		assert.Equal(t, "admin", Role(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
	})

	t.Run("now prefers injected time", func(t *testing.T) {
		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, fixed, Now(WithTime(ctx, fixed)))
	})

	t.Run("now falls back to wall clock", func(t *testing.T) {
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})
}
