package testutil

import (
	"net/http"

	id "tally/pkg/domain"
	"tally/pkg/requestcontext"
)

// WithAuth adds a user ID, session ID, and role to the request context.
// This simulates what the auth middleware would do for authenticated
// requests. Invalid IDs are silently ignored.
func WithAuth(req *http.Request, userID, sessionID, role string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		if parsed, err := id.ParseUserID(userID); err == nil {
			ctx = requestcontext.WithUserID(ctx, parsed)
		}
	}
	if sessionID != "" {
		if parsed, err := id.ParseSessionID(sessionID); err == nil {
			ctx = requestcontext.WithSessionID(ctx, parsed)
		}
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}
