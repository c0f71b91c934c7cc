// Package metrics exposes reconciliation counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dvrmirror"

const (
	CycleOK          = "ok"
	CycleFetchFailed = "fetch_failed"
)

// Metrics holds the reconciliation collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	activeJobs     prometheus.Gauge
	recorderAction *prometheus.CounterVec
}

// New registers all collectors, Go runtime and process ones included, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Reconciliation cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one reconciliation cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Active jobs after the last completed cycle.",
		}),
		recorderAction: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_actions_total",
			Help:      "Recorder start/stop attempts by outcome.",
		}, []string{"action", "outcome"}),
	}
	m.registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.activeJobs,
		m.recorderAction,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle records one cycle. A nil receiver is a no-op so callers can
// run without metrics.
func (m *Metrics) ObserveCycle(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(took.Seconds())
}

func (m *Metrics) SetActiveJobs(n int) {
	if m == nil {
		return
	}
	m.activeJobs.Set(float64(n))
}

func (m *Metrics) RecorderAction(action, outcome string) {
	if m == nil {
		return
	}
	m.recorderAction.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
