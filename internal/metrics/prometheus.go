// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// prometheus.go — MetricsRecorder backed by prometheus/client_golang
// collectors: tier hit/miss counters, latency histograms, error counters,
// footer lookup outcomes and the pending mapping-write gauge.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records metrics into a set of registered collectors.
type Prometheus struct {
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
	footer  *prometheus.CounterVec
	dirty   prometheus.Gauge
}

// NewPrometheus creates the collectors under namespace and registers them
// with reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if namespace == "" {
		namespace = "gridcodec"
	}
	p := &Prometheus{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tier_hits_total",
			Help: "Mapping lookups answered by a tier.",
		}, []string{"tier", "kind"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tier_misses_total",
			Help: "Mapping lookups a tier could not answer.",
		}, []string{"tier", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "op_duration_seconds",
			Help:    "Latency of decode and lookup operations.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"component", "op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "errors_total",
			Help: "Failed operations by component.",
		}, []string{"component", "op"}),
		footer: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "footer_lookups_total",
			Help: "Footer field lookups by outcome.",
		}, []string{"outcome"}),
		dirty: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "mapping_writes_pending",
			Help: "Type mappings queued for write-behind persistence.",
		}),
	}
	for _, c := range []prometheus.Collector{p.hits, p.misses, p.latency, p.errors, p.footer, p.dirty} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) RecordHit(tier, kind string)  { p.hits.WithLabelValues(tier, kind).Inc() }
func (p *Prometheus) RecordMiss(tier, kind string) { p.misses.WithLabelValues(tier, kind).Inc() }

func (p *Prometheus) RecordLatency(component, op string, d time.Duration) {
	p.latency.WithLabelValues(component, op).Observe(d.Seconds())
}

func (p *Prometheus) RecordError(component, op string) { p.errors.WithLabelValues(component, op).Inc() }
func (p *Prometheus) RecordFooter(outcome string)      { p.footer.WithLabelValues(outcome).Inc() }
func (p *Prometheus) RecordDirtyCount(count int64)     { p.dirty.Set(float64(count)) }
