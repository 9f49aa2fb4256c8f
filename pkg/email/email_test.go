package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"john_smith@example.com", "John Smith"},
		{"bob-jones+shop@example.com", "Bob Jones Shop"},
		{"alice@example.com", "Alice"},
		{"x@example.com", "X"},
		{"...@example.com", "User"},
		{"", "User"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveNameFromEmail(tc.email), "email %q", tc.email)
	}
}
