// Package telemetry exposes Prometheus metrics for the message pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message outcomes.
const (
	OutcomeDisabled   = "disabled"
	OutcomePending    = "pending"
	OutcomeDuplicate  = "duplicate"
	OutcomeIrrelevant = "irrelevant"
	OutcomeInvalid    = "invalid"
	OutcomeBelowMin   = "below_minimum"
	OutcomeBalance    = "balance_inquiry"
	OutcomeSubmitted  = "submitted"
	OutcomeRejected   = "rejected"
)

// Persistence results.
const (
	PersistSucceeded = "succeeded"
	PersistRetried   = "retried"
	PersistFailed    = "failed"
	PersistDuplicate = "duplicate"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and
// records nothing.
//
// Metrics:
//   - smsledger_messages_total{outcome}
//   - smsledger_suggestions_total{state}
//   - smsledger_persist_attempts_total{result}
//   - smsledger_suggestion_confidence
//   - smsledger_queue_depth
type Metrics struct {
	MessagesTotal    *prometheus.CounterVec
	SuggestionsTotal *prometheus.CounterVec
	PersistTotal     *prometheus.CounterVec
	Confidence       prometheus.Histogram
	QueueDepth       prometheus.Gauge
}

// NewMetrics registers collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_messages_total",
				Help: "Messages seen by the monitor, by outcome",
			},
			[]string{"outcome"},
		),
		SuggestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_suggestions_total",
				Help: "Suggestion state transitions",
			},
			[]string{"state"},
		),
		PersistTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_persist_attempts_total",
				Help: "Backend persistence attempts, by result",
			},
			[]string{"result"},
		),
		Confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smsledger_suggestion_confidence",
				Help:    "Confidence of submitted transactions",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "smsledger_queue_depth",
				Help: "Suggestions waiting behind the visible one",
			},
		),
	}
}

// RecordMessage counts a monitor outcome.
func (m *Metrics) RecordMessage(outcome string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordSuggestion counts a suggestion entering state.
func (m *Metrics) RecordSuggestion(state string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(state).Inc()
}

// RecordPersist counts a persistence attempt result.
func (m *Metrics) RecordPersist(result string) {
	if m == nil {
		return
	}
	m.PersistTotal.WithLabelValues(result).Inc()
}

// ObserveConfidence records a submitted transaction's confidence.
func (m *Metrics) ObserveConfidence(v float64) {
	if m == nil {
		return
	}
	m.Confidence.Observe(v)
}

// SetQueueDepth records the coordinator queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
