// Package metrics defines the obscalc engine's metrics surface: small
// Counter/Gauge/Histogram interfaces, backed by a Prometheus registry.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter is a monotonically increasing value.
type Counter interface{ Inc(labels ...string) }

// Gauge can move up or down.
type Gauge interface{ Set(v float64, labels ...string) }

// Histogram records individual observations.
type Histogram interface{ Observe(v float64, labels ...string) }

// Registry is the obscalc engine's fixed metric set (spec §4.8, §5): queue
// depth, calculation outcomes, retry/backoff, and ITC cache hit rate.
type Registry struct {
	reg *prom.Registry

	PendingGauge      Gauge
	CalculatingGauge  Gauge
	RetryGauge        Gauge
	CalcDuration      Histogram
	CalcOutcomes      Counter
	ItcCacheHits      Counter
	ItcCacheMisses    Counter
	LeaseExpirations  Counter
}

// NewRegistry builds a Registry bound to a fresh Prometheus registry.
func NewRegistry() *Registry {
	reg := prom.NewRegistry()

	pending := prom.NewGauge(prom.GaugeOpts{Namespace: "odb", Subsystem: "obscalc", Name: "pending_entries", Help: "Entries currently in the Pending state."})
	calculating := prom.NewGauge(prom.GaugeOpts{Namespace: "odb", Subsystem: "obscalc", Name: "calculating_entries", Help: "Entries currently being calculated."})
	retrying := prom.NewGauge(prom.GaugeOpts{Namespace: "odb", Subsystem: "obscalc", Name: "retry_entries", Help: "Entries currently awaiting retry."})
	duration := prom.NewHistogram(prom.HistogramOpts{Namespace: "odb", Subsystem: "obscalc", Name: "calc_duration_seconds", Help: "Wall-clock duration of one observation calculation.", Buckets: prom.DefBuckets})
	outcomes := prom.NewCounterVec(prom.CounterOpts{Namespace: "odb", Subsystem: "obscalc", Name: "calc_outcomes_total", Help: "Calculation outcomes by result."}, []string{"outcome"})
	hits := prom.NewCounter(prom.CounterOpts{Namespace: "odb", Subsystem: "itc", Name: "cache_hits_total", Help: "ITC cache hits."})
	misses := prom.NewCounter(prom.CounterOpts{Namespace: "odb", Subsystem: "itc", Name: "cache_misses_total", Help: "ITC cache misses."})
	leaseExp := prom.NewCounter(prom.CounterOpts{Namespace: "odb", Subsystem: "obscalc", Name: "lease_expirations_total", Help: "Leases that expired before the worker completed."})

	reg.MustRegister(pending, calculating, retrying, duration, outcomes, hits, misses, leaseExp)

	return &Registry{
		reg:              reg,
		PendingGauge:     gaugeAdapter{pending},
		CalculatingGauge: gaugeAdapter{calculating},
		RetryGauge:       gaugeAdapter{retrying},
		CalcDuration:     histogramAdapter{duration},
		CalcOutcomes:     labeledCounterAdapter{outcomes},
		ItcCacheHits:     counterAdapter{hits},
		ItcCacheMisses:   counterAdapter{misses},
		LeaseExpirations: counterAdapter{leaseExp},
	}
}

// Handler returns the HTTP handler exposing this registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

type gaugeAdapter struct{ g prom.Gauge }

func (a gaugeAdapter) Set(v float64, _ ...string) { a.g.Set(v) }

type histogramAdapter struct{ h prom.Histogram }

func (a histogramAdapter) Observe(v float64, _ ...string) { a.h.Observe(v) }

type counterAdapter struct{ c prom.Counter }

func (a counterAdapter) Inc(_ ...string) { a.c.Inc() }

type labeledCounterAdapter struct{ c *prom.CounterVec }

func (a labeledCounterAdapter) Inc(labels ...string) {
	if len(labels) == 0 {
		return
	}
	a.c.WithLabelValues(labels[0]).Inc()
}
