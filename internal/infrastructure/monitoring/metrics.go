// Package monitoring exposes Prometheus metrics for the sync layer.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds sync-layer Prometheus metrics.
type Metrics struct {
	RemoteCalls     *prometheus.CounterVec
	RemoteDuration  *prometheus.HistogramVec
	Reconciliations prometheus.Counter
	SessionsTracked prometheus.Gauge
}

// New creates a metrics collector registered against reg. A nil registerer
// gets a private registry so repeated construction (tests) never collides.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RemoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canvai_remote_calls_total",
				Help: "Total remote backend calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canvai_remote_call_duration_seconds",
				Help:    "Remote backend call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		Reconciliations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "canvai_reconciliations_total",
				Help: "Total local/remote session reconciliation runs",
			},
		),
		SessionsTracked: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "canvai_sessions_tracked",
				Help: "Number of sessions currently held in the session store",
			},
		),
	}
}

// ObserveRemote records one remote call.
func (m *Metrics) ObserveRemote(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RemoteCalls.WithLabelValues(op, outcome).Inc()
	m.RemoteDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetSessionCount updates the tracked-session gauge.
func (m *Metrics) SetSessionCount(n int) {
	if m == nil {
		return
	}
	m.SessionsTracked.Set(float64(n))
}

// IncReconciliation counts one reconciliation run.
func (m *Metrics) IncReconciliation() {
	if m == nil {
		return
	}
	m.Reconciliations.Inc()
}
