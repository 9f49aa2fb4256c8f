package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "user not found")
	assert.Equal(t, "not_found: user not found", err.Error())
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
	})

	t.Run("preserves the cause chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to load user")

		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("code detectable through further wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeConflict, "version mismatch"))
		assert.True(t, HasCode(err, CodeConflict))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(New(CodeForbidden, "nope")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain error")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "nope", MessageOf(New(CodeForbidden, "nope")))
	assert.Equal(t, "internal error", MessageOf(errors.New("sql: no rows")))
}
