package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	// Append outcomes: "accepted", "over_cap", "duplicate", "error"
	AppendOutcome *prometheus.CounterVec

	// Store operation latencies by operation name
	StoreLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		AppendOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fecgate_ledger_append_total",
			Help: "Ledger append attempts by outcome",
		}, []string{"outcome"}),

		StoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fecgate_ledger_store_duration_seconds",
			Help:    "Duration of ledger store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}), // operation: "cumulative_total", "append", "list"
	}
}

// IncrementAppend records an append outcome.
func (m *Metrics) IncrementAppend(outcome string) {
	if m != nil {
		m.AppendOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveStoreLatency records the duration of a store operation.
func (m *Metrics) ObserveStoreLatency(operation string, d time.Duration) {
	if m != nil {
		m.StoreLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
