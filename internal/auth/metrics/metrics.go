package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the auth module.
type Metrics struct {
	Registrations prometheus.Counter
	Logins        prometheus.Counter
	LoginFailures prometheus.Counter
	LoginDuration prometheus.Histogram
}

// New creates a Metrics instance with all auth module metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_registrations_total",
			Help: "Total number of accounts registered",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_logins_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_login_duration_seconds",
			Help:    "Duration of login operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveLogin records the duration of a login operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
