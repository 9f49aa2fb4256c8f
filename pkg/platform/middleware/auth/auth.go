// Package auth provides the bearer-token middleware. It validates the access
// token, rejects revoked sessions, and pushes the caller's identity and role
// into the request context for services to read.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "tally/pkg/domain"
	"tally/pkg/requestcontext"
)

// JWTValidator validates access tokens and returns their claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// SessionChecker reports whether the session backing a token has been
// revoked or expired. Logout revokes the session, which invalidates every
// in-flight request carrying its token.
type SessionChecker interface {
	IsSessionActive(ctx context.Context, sessionID id.SessionID) (bool, error)
}

// Claims are the token claims the middleware needs.
type Claims struct {
	UserID    string
	SessionID string
	Role      string
}

// RoleValidator rejects unknown role values at the authentication boundary
// so they never reach the role policy.
type RoleValidator func(role string) bool

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAuth builds middleware enforcing a valid bearer token bound to an
// active session.
func RequireAuth(validator JWTValidator, sessions SessionChecker, validRole RoleValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			sessionID, err := id.ParseSessionID(claims.SessionID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			if !validRole(claims.Role) {
				logger.WarnContext(ctx, "unauthorized access - unknown role",
					"role", claims.Role,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			active, err := sessions.IsSessionActive(ctx, sessionID)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check session state",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to validate token")
				return
			}
			if !active {
				logger.WarnContext(ctx, "unauthorized access - session revoked",
					"session_id", sessionID.String(),
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "session has been revoked")
				return
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithSessionID(ctx, sessionID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
