package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance engine.
type Metrics struct {
	// Verdicts by decision and reason
	Verdicts *prometheus.CounterVec

	// Evaluation failures by kind: "unavailable", "timeout", "conflict"
	Failures *prometheus.CounterVec

	// End-to-end evaluation latency by decision
	EvaluateLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fecgate_compliance_verdicts_total",
			Help: "Compliance verdicts by decision and reason",
		}, []string{"decision", "reason"}),

		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fecgate_compliance_failures_total",
			Help: "Evaluations that could not produce a verdict",
		}, []string{"kind"}),

		EvaluateLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fecgate_compliance_evaluate_duration_seconds",
			Help:    "End-to-end contribution evaluation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"decision"}),
	}
}

// IncrementVerdict records a produced verdict.
func (m *Metrics) IncrementVerdict(decision, reason string) {
	if m != nil {
		m.Verdicts.WithLabelValues(decision, reason).Inc()
	}
}

// IncrementFailure records an evaluation that could not complete.
func (m *Metrics) IncrementFailure(kind string) {
	if m != nil {
		m.Failures.WithLabelValues(kind).Inc()
	}
}

// ObserveEvaluation records the duration of a full evaluation.
func (m *Metrics) ObserveEvaluation(decision string, d time.Duration) {
	if m != nil {
		m.EvaluateLatency.WithLabelValues(decision).Observe(d.Seconds())
	}
}
