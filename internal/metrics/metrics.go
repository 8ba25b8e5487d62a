package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the baker and the dev server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FilesBaked        *prometheus.CounterVec
	BakeErrors        *prometheus.CounterVec
	BakeDuration      prometheus.Histogram
	Reconciles        *prometheus.CounterVec
	ReconcileDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FilesBaked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oven_files_baked_total",
			Help: "The total number of files rendered, by content type.",
		}, []string{"type"}),
		BakeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oven_bake_errors_total",
			Help: "The total number of per-file bake failures, by content type.",
		}, []string{"type"}),
		BakeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oven_bake_duration_seconds",
			Help:    "Duration of full bake passes.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
		}),
		Reconciles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oven_reconciles_total",
			Help: "The total number of dev server reconciliations.",
		}, []string{"mode"}), // targeted, full
		ReconcileDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oven_reconcile_duration_seconds",
			Help:    "Duration of dev server reconciliations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}
}

func (m *Metrics) IncBaked(kind string) {
	if m == nil {
		return
	}
	m.FilesBaked.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncBakeError(kind string) {
	if m == nil {
		return
	}
	m.BakeErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveBake(seconds float64) {
	if m == nil {
		return
	}
	m.BakeDuration.Observe(seconds)
}

func (m *Metrics) ObserveReconcile(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.Reconciles.WithLabelValues(mode).Inc()
	m.ReconcileDuration.WithLabelValues(mode).Observe(seconds)
}
