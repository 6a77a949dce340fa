// Package metrics exposes the prometheus instruments of the financial core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry            *prometheus.Registry
	recomputeDuration   *prometheus.HistogramVec
	recomputeFailures   *prometheus.CounterVec
	recomputeDropped    prometheus.Counter
	recomputeCoalesced  prometheus.Counter
	variationTransition *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "erp",
			Subsystem: "snapshot",
			Name:      "recompute_duration_seconds",
			Help:      "Time spent rebuilding one snapshot category.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		recomputeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "snapshot",
			Name:      "recompute_failures_total",
			Help:      "Snapshot category rebuilds that returned an error.",
		}, []string{"category"}),
		recomputeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "snapshot",
			Name:      "recompute_dropped_total",
			Help:      "Recompute requests dropped because the queue was full.",
		}),
		recomputeCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "snapshot",
			Name:      "recompute_coalesced_total",
			Help:      "Recompute requests merged into an already pending request.",
		}),
		variationTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "variation",
			Name:      "transitions_total",
			Help:      "Variation status transitions by outcome.",
		}, []string{"from", "to", "outcome"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.recomputeDuration,
		r.recomputeFailures,
		r.recomputeDropped,
		r.recomputeCoalesced,
		r.variationTransition,
	)
	return r
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveRecompute(category string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.recomputeDuration.WithLabelValues(category).Observe(d.Seconds())
	if err != nil {
		r.recomputeFailures.WithLabelValues(category).Inc()
	}
}

func (r *Recorder) RecomputeDropped() {
	if r == nil {
		return
	}
	r.recomputeDropped.Inc()
}

func (r *Recorder) RecomputeCoalesced() {
	if r == nil {
		return
	}
	r.recomputeCoalesced.Inc()
}

// VariationTransition counts a status change attempt; outcome is "ok",
// "invalid" or "conflict".
func (r *Recorder) VariationTransition(from, to, outcome string) {
	if r == nil {
		return
	}
	r.variationTransition.WithLabelValues(from, to, outcome).Inc()
}
