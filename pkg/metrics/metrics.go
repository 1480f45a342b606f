// Package metrics exposes Prometheus metrics for explanations and model
// loading. Metrics implements explain.Observer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "goeli5"

// Metrics holds the collectors of the CLI and the HTTP service.
type Metrics struct {
	ExplanationsTotal   *prometheus.CounterVec   // explanations by estimator kind
	ExplanationFailures *prometheus.CounterVec   // failed explanations by estimator kind
	ExplanationLatency  *prometheus.HistogramVec // dispatch latency in seconds
	ModelLoads          prometheus.Counter       // models read from disk
	ModelLoadFailures   prometheus.Counter
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
}

// New registers the metrics with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with registerer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ExplanationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Total number of weight explanations requested",
		}, []string{"estimator"}),
		ExplanationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_failures_total",
			Help:      "Total number of weight explanations that returned an error",
		}, []string{"estimator"}),
		ExplanationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "explanation_latency_seconds",
			Help:      "Latency of weight explanations in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"estimator"}),
		ModelLoads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Total number of model files loaded",
		}),
		ModelLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_load_failures_total",
			Help:      "Total number of model files that failed to load",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_hits_total",
			Help:      "Total number of model cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_misses_total",
			Help:      "Total number of model cache misses",
		}),
	}
}

// ObserveExplanation implements explain.Observer.
func (m *Metrics) ObserveExplanation(kind string, duration time.Duration, err error) {
	m.ExplanationsTotal.WithLabelValues(kind).Inc()
	m.ExplanationLatency.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		m.ExplanationFailures.WithLabelValues(kind).Inc()
	}
}

// ObserveModelLoad counts a model load attempt.
func (m *Metrics) ObserveModelLoad(err error) {
	m.ModelLoads.Inc()
	if err != nil {
		m.ModelLoadFailures.Inc()
	}
}

// ObserveCache counts a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}
