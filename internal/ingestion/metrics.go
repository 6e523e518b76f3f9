package ingestion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ingestions *prometheus.CounterVec
	failures   *prometheus.CounterVec
	steps      *prometheus.HistogramVec
}

// NewMetrics registers the ingestion collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framepro",
			Name:      "ingestions_total",
			Help:      "Ingestion requests by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framepro",
			Name:      "ingestion_failures_total",
			Help:      "Ingestion failures by pipeline step and error kind.",
		}, []string{"step", "kind"}),
		steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "framepro",
			Name:      "ingestion_step_duration_seconds",
			Help:      "Duration of each ingestion pipeline step.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"step"}),
	}
	reg.MustRegister(m.ingestions, m.failures, m.steps)
	return m
}

func (m *Metrics) observeStep(step Step, d time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(string(step)).Observe(d.Seconds())
}

func (m *Metrics) recordOutcome(step Step, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.ingestions.WithLabelValues("success").Inc()
		return
	}
	m.ingestions.WithLabelValues("failure").Inc()
	m.failures.WithLabelValues(string(step), string(KindOf(err))).Inc()
}
