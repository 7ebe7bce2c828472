// Package metrics exposes scenario outcomes as Prometheus collectors on a
// private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sharedstate"

// Metrics holds every collector the scenarios update.
type Metrics struct {
	Registry *prometheus.Registry

	Runs         *prometheus.CounterVec   // scenario, outcome
	Duration     *prometheus.HistogramVec // scenario
	HighWater    *prometheus.GaugeVec     // scenario
	LostUpdates  *prometheus.GaugeVec     // variant
	QueuePending prometheus.Gauge
}

// New registers the collectors, plus the Go runtime collector, on a fresh
// registry. The goroutine count it reports is how a hung scenario shows up
// on a dashboard.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_runs_total",
			Help:      "Scenario runs by outcome.",
		}, []string{"scenario", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_duration_seconds",
			Help:      "Wall time of a scenario run, including any time bound spent waiting.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"scenario"}),
		HighWater: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_high_water",
			Help:      "Peak number of workers admitted to a bounded pool at once.",
		}, []string{"scenario"}),
		LostUpdates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "counter_lost_updates",
			Help:      "Increments missing from the final count of the last run.",
		}, []string{"variant"}),
		QueuePending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_pending",
			Help:      "Items put but not yet marked done when the queue scenario returned.",
		}),
	}
	reg.MustRegister(
		m.Runs,
		m.Duration,
		m.HighWater,
		m.LostUpdates,
		m.QueuePending,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveRun records one finished scenario.
func (m *Metrics) ObserveRun(scenario, outcome string, d time.Duration) {
	m.Runs.WithLabelValues(scenario, outcome).Inc()
	m.Duration.WithLabelValues(scenario).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
