package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the accrual module.
type Metrics struct {
	PurchasesRecorded prometheus.Counter
	RewardsIssued     prometheus.Counter
	RewardsRedeemed   prometheus.Counter
	ConflictRetries   prometheus.Counter
	ScanDuration      prometheus.Histogram
}

// New creates a Metrics instance with all accrual module metrics registered.
func New() *Metrics {
	return &Metrics{
		PurchasesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_purchases_recorded_total",
			Help: "Total number of purchase scans recorded",
		}),
		RewardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_rewards_issued_total",
			Help: "Total number of rewards issued",
		}),
		RewardsRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_rewards_redeemed_total",
			Help: "Total number of rewards redeemed",
		}),
		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tally_scan_conflict_retries_total",
			Help: "Total number of scan retries after write conflicts",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_scan_duration_seconds",
			Help:    "Duration of purchase scan operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveScan records the duration of a purchase scan.
func (m *Metrics) ObserveScan(start time.Time) {
	m.ScanDuration.Observe(time.Since(start).Seconds())
}
