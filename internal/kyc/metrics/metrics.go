package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the KYC registry.
type Metrics struct {
	// Lookups by result: "verified", "unverified"
	Lookups *prometheus.CounterVec

	// Contributors marked verified
	Marked prometheus.Counter

	// Cache effectiveness: "hit", "miss", "bypass"
	Cache *prometheus.CounterVec
}

// New creates a Metrics instance with all KYC registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fecgate_kyc_lookups_total",
			Help: "KYC status lookups by result",
		}, []string{"result"}),

		Marked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fecgate_kyc_marked_verified_total",
			Help: "Contributors marked as KYC verified",
		}),

		Cache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fecgate_kyc_cache_total",
			Help: "KYC status cache lookups by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementLookup records a status lookup result.
func (m *Metrics) IncrementLookup(verified bool) {
	if m == nil {
		return
	}
	result := "unverified"
	if verified {
		result = "verified"
	}
	m.Lookups.WithLabelValues(result).Inc()
}

// IncrementMarked records a successful MarkVerified.
func (m *Metrics) IncrementMarked() {
	if m != nil {
		m.Marked.Inc()
	}
}

// IncrementCache records a cache outcome.
func (m *Metrics) IncrementCache(outcome string) {
	if m != nil {
		m.Cache.WithLabelValues(outcome).Inc()
	}
}
