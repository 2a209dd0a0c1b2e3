// Package metrics holds process-wide HTTP metrics. Feature-level metrics
// live next to their features.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides request-level observability for the HTTP surface.
type Metrics struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New creates a Metrics instance with all HTTP metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fecgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),

		RequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fecgate_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.RequestsInFlight.Inc()
	return m.RequestsInFlight.Dec
}
