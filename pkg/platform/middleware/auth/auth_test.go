package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tally/pkg/domain"
	"tally/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (v *stubValidator) ValidateToken(string) (*Claims, error) { return v.claims, v.err }

type stubSessions struct {
	active bool
	err    error
}

func (s *stubSessions) IsSessionActive(context.Context, id.SessionID) (bool, error) {
	return s.active, s.err
}

func allowAllRoles(string) bool { return true }

func runMiddleware(t *testing.T, validator JWTValidator, sessions SessionChecker, validRole RoleValidator, header string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var captured *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()

	RequireAuth(validator, sessions, validRole, slog.New(slog.DiscardHandler))(next).ServeHTTP(rr, req)
	return rr, captured
}

func validClaims() *Claims {
	return &Claims{
		UserID:    uuid.NewString(),
		SessionID: uuid.NewString(),
		Role:      "customer",
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing header is 401", func(t *testing.T) {
		rr, _ := runMiddleware(t, &stubValidator{}, &stubSessions{}, allowAllRoles, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-bearer header is 401", func(t *testing.T) {
		rr, _ := runMiddleware(t, &stubValidator{}, &stubSessions{}, allowAllRoles, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		validator := &stubValidator{err: errors.New("bad signature")}
		rr, _ := runMiddleware(t, validator, &stubSessions{}, allowAllRoles, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown role is 401", func(t *testing.T) {
		validator := &stubValidator{claims: validClaims()}
		rr, _ := runMiddleware(t, validator, &stubSessions{active: true},
			func(string) bool { return false }, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("revoked session is 401", func(t *testing.T) {
		validator := &stubValidator{claims: validClaims()}
		rr, _ := runMiddleware(t, validator, &stubSessions{active: false}, allowAllRoles, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("session check failure is 500", func(t *testing.T) {
		validator := &stubValidator{claims: validClaims()}
		rr, _ := runMiddleware(t, validator, &stubSessions{err: errors.New("store down")}, allowAllRoles, "Bearer x")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("valid token flows identity into context", func(t *testing.T) {
		claims := validClaims()
		validator := &stubValidator{claims: claims}

		rr, captured := runMiddleware(t, validator, &stubSessions{active: true}, allowAllRoles, "Bearer x")
		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, captured)

		ctx := captured.Context()
		assert.Equal(t, claims.UserID, requestcontext.UserID(ctx).String())
		assert.Equal(t, claims.SessionID, requestcontext.SessionID(ctx).String())
		assert.Equal(t, "customer", requestcontext.Role(ctx))
	})
}
