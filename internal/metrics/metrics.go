// Package metrics exposes Prometheus collectors for the risk
// quantification engine. A *Collectors may be nil throughout the
// service layer — every method on a nil *Collectors is a no-op, so
// instrumentation is always optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors bundles the engine's Prometheus instruments.
type Collectors struct {
	simulationsTotal    *prometheus.CounterVec
	cacheResultsTotal   *prometheus.CounterVec
	simulationsInFlight prometheus.Gauge
	simulationLatency   prometheus.Histogram
}

// New creates the engine's collectors and registers them against reg.
// Pass prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer to expose them on the process's default
// /metrics endpoint.
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		simulationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lossengine",
			Name:      "simulations_total",
			Help:      "Leaf simulations run, partitioned by node kind.",
		}, []string{"node_kind"}),
		cacheResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lossengine",
			Name:      "cache_results_total",
			Help:      "Outcome-map cache lookups, partitioned by result.",
		}, []string{"result"}),
		simulationsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "lossengine",
			Name:      "simulations_in_flight",
			Help:      "Simulations currently holding the concurrency semaphore.",
		}),
		simulationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lossengine",
			Name:      "simulation_latency_seconds",
			Help:      "Wall-clock time to resolve a single node's outcome map.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveSimulation records one completed leaf or portfolio resolution.
func (c *Collectors) ObserveSimulation(nodeKind string, d time.Duration) {
	if c == nil {
		return
	}
	c.simulationsTotal.WithLabelValues(nodeKind).Inc()
	c.simulationLatency.Observe(d.Seconds())
}

// CacheHit records a cache lookup that found a usable entry.
func (c *Collectors) CacheHit() {
	if c == nil {
		return
	}
	c.cacheResultsTotal.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache lookup that required a fresh computation.
func (c *Collectors) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheResultsTotal.WithLabelValues("miss").Inc()
}

// SimulationStarted increments the in-flight gauge. Callers should defer
// SimulationFinished.
func (c *Collectors) SimulationStarted() {
	if c == nil {
		return
	}
	c.simulationsInFlight.Inc()
}

// SimulationFinished decrements the in-flight gauge.
func (c *Collectors) SimulationFinished() {
	if c == nil {
		return
	}
	c.simulationsInFlight.Dec()
}
