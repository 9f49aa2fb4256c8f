package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tally/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("valid uuid parses", func(t *testing.T) {
		raw := uuid.NewString()
		parsed, err := ParseUserID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, parsed.String())
	})

	t.Run("empty string rejected", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil uuid rejected", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestIsNil(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.True(t, SessionID{}.IsNil())
	assert.False(t, NewUserID().IsNil())
	assert.False(t, NewRewardID().IsNil())
}

// IDs must travel as canonical UUID strings, not byte arrays.
func TestJSONRoundTrip(t *testing.T) {
	userID := NewUserID()

	raw, err := json.Marshal(userID)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+userID.String()+`"`, string(raw))

	var decoded UserID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, userID, decoded)
}
