package request

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	run := func(t *testing.T, incoming string) (*httptest.ResponseRecorder, *http.Request) {
		t.Helper()
		var captured *http.Request
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set("X-Request-ID", incoming)
		}
		rr := httptest.NewRecorder()
		Middleware(next).ServeHTTP(rr, req)
		return rr, captured
	}

	t.Run("generates a request id", func(t *testing.T) {
		rr, captured := run(t, "")
		require.NotNil(t, captured)

		requestID := requestcontext.RequestID(captured.Context())
		assert.NotEmpty(t, requestID)
		assert.Equal(t, requestID, rr.Header().Get("X-Request-ID"))
	})

	t.Run("honors an incoming request id", func(t *testing.T) {
		rr, captured := run(t, "upstream-id")
		assert.Equal(t, "upstream-id", requestcontext.RequestID(captured.Context()))
		assert.Equal(t, "upstream-id", rr.Header().Get("X-Request-ID"))
	})

	t.Run("stamps a request time", func(t *testing.T) {
		_, captured := run(t, "")
		first := requestcontext.Now(captured.Context())
		second := requestcontext.Now(captured.Context())
		assert.Equal(t, first, second, "one timestamp per request")
	})
}
