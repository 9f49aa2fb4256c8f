// Package httptransport assembles the HTTP surface: public auth endpoints,
// the authenticated dashboard and admin routes, health, and metrics.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tally/internal/policy"
	authmw "tally/pkg/platform/middleware/auth"
	requestmw "tally/pkg/platform/middleware/request"
	"tally/pkg/platform/httputil"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Routable registers a module's routes on a router.
type Routable interface {
	RegisterProtected(r chi.Router)
}

// PublicRoutable registers routes that do not require authentication.
type PublicRoutable interface {
	RegisterPublic(r chi.Router)
}

// Config carries everything the router needs.
type Config struct {
	Logger    *slog.Logger
	Validator authmw.JWTValidator
	Sessions  authmw.SessionChecker

	Public    []PublicRoutable
	Protected []Routable

	// HealthChecks maps a component name to its probe.
	HealthChecks map[string]HealthCheck
}

// NewRouter wires the full route tree.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestmw.Middleware)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range cfg.Public {
		h.RegisterPublic(r)
	}

	r.Group(func(protected chi.Router) {
		protected.Use(authmw.RequireAuth(cfg.Validator, cfg.Sessions, policy.Valid, cfg.Logger))
		for _, h := range cfg.Protected {
			h.RegisterProtected(protected)
		}
	})

	return r
}

// healthHandler reports per-component health. Any failing probe degrades the
// status to 503 so load balancers stop routing here.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(components) > 0 {
			body["components"] = components
		}
		httputil.WriteJSON(w, status, body)
	}
}
