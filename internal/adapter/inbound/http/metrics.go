package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Gateward.
// Pass to components that need to record metrics.
type Metrics struct {
	ScopeDecisions      *prometheus.CounterVec
	EvaluationDuration  prometheus.Histogram
	PendingElicitations prometheus.GaugeFunc
	ElicitationOutcomes *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registry.
// pendingCount reports the broker's current pending-elicitation count;
// pass nil to skip the gauge.
func NewMetrics(reg prometheus.Registerer, pendingCount func() float64) *Metrics {
	m := &Metrics{
		ScopeDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateward",
				Name:      "scope_decisions_total",
				Help:      "Total scope evaluations by outcome and reason",
			},
			[]string{"outcome", "reason"}, // outcome=allow/deny
		),
		EvaluationDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "gateward",
				Name:      "scope_evaluation_duration_seconds",
				Help:      "Scope evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ElicitationOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateward",
				Name:      "elicitation_outcomes_total",
				Help:      "Total elicitation requests by terminal outcome",
			},
			[]string{"outcome"}, // completed/timeout/capacity/schema_invalid/shutdown/cancelled
		),
	}
	if pendingCount != nil {
		m.PendingElicitations = promauto.With(reg).NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "gateward",
				Name:      "pending_elicitations",
				Help:      "Number of elicitation requests awaiting a client reply",
			},
			pendingCount,
		)
	}
	return m
}
