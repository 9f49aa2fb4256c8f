// Package request provides middleware for request-scoped metadata: a
// correlation ID and a single "now" timestamp so every operation within one
// request observes the same time.
package request

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"tally/pkg/requestcontext"
)

// Middleware stamps each request with a request ID (honoring an incoming
// X-Request-ID) and the current time, and echoes the ID on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
