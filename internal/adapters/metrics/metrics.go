// Package metrics records cache activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
)

const namespace = "importcache"

var _ ports.Metrics = (*Metrics)(nil)

// Metrics implements ports.Metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	lookups      *prometheus.CounterVec
	invalidated  *prometheus.CounterVec
	evicted      *prometheus.CounterVec
	computations *prometheus.CounterVec
	computeTime  *prometheus.HistogramVec
	entries      *prometheus.GaugeVec
}

// New creates the collectors and registers them, together with the Go runtime
// collectors, on a new registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Document lookups by import kind and result (hit or miss).",
		}, []string{"kind", "result"}),
		invalidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Entries invalidated by file changes, by import kind.",
		}, []string{"kind"}),
		evicted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Entries removed after their last referrer was released, by import kind.",
		}, []string{"kind"}),
		computations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Document computations by import kind and outcome.",
		}, []string{"kind", "outcome"}),
		computeTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Document computation latency in seconds.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		entries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Current number of cache entries by import kind.",
		}, []string{"kind"}),
	}
}

// CacheHit records a lookup served from a valid entry.
func (m *Metrics) CacheHit(kind domain.ImportKind) {
	m.lookups.WithLabelValues(kind.String(), "hit").Inc()
}

// CacheMiss records a lookup that had to compute its document.
func (m *Metrics) CacheMiss(kind domain.ImportKind) {
	m.lookups.WithLabelValues(kind.String(), "miss").Inc()
}

// Invalidated records n entries invalidated by one change batch.
func (m *Metrics) Invalidated(kind domain.ImportKind, n int) {
	m.invalidated.WithLabelValues(kind.String()).Add(float64(n))
}

// Evicted records an entry removed from its table.
func (m *Metrics) Evicted(kind domain.ImportKind) {
	m.evicted.WithLabelValues(kind.String()).Inc()
}

// ObserveCompute records the duration and outcome of one computation.
func (m *Metrics) ObserveCompute(kind domain.ImportKind, d time.Duration, err error) {
	m.computeTime.WithLabelValues(kind.String()).Observe(d.Seconds())
	m.computations.WithLabelValues(kind.String(), outcome(err)).Inc()
}

// SetEntries records the current number of entries of a table.
func (m *Metrics) SetEntries(kind domain.ImportKind, n int) {
	m.entries.WithLabelValues(kind.String()).Set(float64(n))
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrComputeTimeout):
		return "timeout"
	default:
		return "error"
	}
}
