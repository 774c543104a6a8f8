// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes Prometheus series for the degrader's own
// behavior (spec.md's ambient observability surface; no Non-goal excludes
// it). Structurally grounded on the teacher's internal/metrics.Collector
// (a struct wrapping a registry plus a logger), with the nftables
// interface/policy/system/conntrack statistics it collects replaced
// entirely by packet-scheduling counters relevant to this spec.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/degrader/internal/logging"
)

// Registry holds every Prometheus series the degrader reports, backed by
// its own prometheus.Registry so embedding this library never collides
// with the default global registry.
type Registry struct {
	prom *prometheus.Registry

	PacketsTotal   *prometheus.CounterVec
	VerdictLatency prometheus.Histogram
	FlowsActive    prometheus.Gauge
}

// NewRegistry creates and registers the degrader's metric series.
func NewRegistry() *Registry {
	r := &Registry{prom: prometheus.NewRegistry()}

	r.PacketsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "degrader",
		Name:      "packets_total",
		Help:      "Packets processed, labeled by stage and verdict.",
	}, []string{"stage", "verdict"})

	r.VerdictLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "degrader",
		Name:      "verdict_latency_seconds",
		Help:      "Time from packet admission to verdict delivery.",
		Buckets:   prometheus.DefBuckets,
	})

	r.FlowsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "degrader",
		Name:      "flows_active",
		Help:      "Number of distinct flows currently tracked by the dispatcher.",
	})

	r.prom.MustRegister(r.PacketsTotal, r.VerdictLatency, r.FlowsActive)
	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for an HTTP
// exposition handler (e.g. promhttp.HandlerFor).
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// Collector reports scheduling-core events into a Registry (spec.md's
// ambient observability surface), grounded on the teacher's
// internal/metrics.Collector shape.
type Collector struct {
	registry *Registry
	log      *logging.Logger
}

// NewCollector creates a Collector reporting into registry.
func NewCollector(registry *Registry, log *logging.Logger) *Collector {
	return &Collector{registry: registry, log: log}
}

// RecordVerdict records one packet's terminal verdict at the named stage.
// The dispatcher is the only caller and reports its verdicts under the
// stage name "dispatcher".
func (c *Collector) RecordVerdict(stage, verdict string) {
	c.registry.PacketsTotal.WithLabelValues(stage, verdict).Inc()
}

// ObserveLatencySeconds records the admission-to-verdict latency.
func (c *Collector) ObserveLatencySeconds(seconds float64) {
	c.registry.VerdictLatency.Observe(seconds)
}

// SetFlowCount updates the active-flow gauge.
func (c *Collector) SetFlowCount(n int) {
	c.registry.FlowsActive.Set(float64(n))
}
