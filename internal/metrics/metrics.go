package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the calculator's Prometheus collectors.
type Metrics struct {
	Calculations       *prometheus.CounterVec
	CalculationLatency prometheus.Histogram
	VendorsSkipped     prometheus.Counter
	CacheLookups       *prometheus.CounterVec
	CatalogVendors     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nactco_calculations_total",
				Help: "Total number of TCO calculations by result.",
			},
			[]string{"result"},
		),
		CalculationLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nactco_calculation_duration_seconds",
				Help:    "Latency of TCO calculations.",
				Buckets: prometheus.DefBuckets,
			},
		),
		VendorsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nactco_vendors_skipped_total",
				Help: "Vendors left out of a report because they could not be evaluated.",
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nactco_cache_lookups_total",
				Help: "Per-vendor result cache lookups by outcome.",
			},
			[]string{"outcome"},
		),
		CatalogVendors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nactco_catalog_vendors",
				Help: "Number of vendors in the active catalog.",
			},
		),
	}
	reg.MustRegister(m.Calculations, m.CalculationLatency, m.VendorsSkipped, m.CacheLookups, m.CatalogVendors)
	return m
}

// RecordCalculation records one finished calculation.
func (m *Metrics) RecordCalculation(result string, skipped int, duration time.Duration) {
	m.Calculations.WithLabelValues(result).Inc()
	m.CalculationLatency.Observe(duration.Seconds())
	m.VendorsSkipped.Add(float64(skipped))
}

// RecordCacheDelta adds hit and miss increments observed since the last call.
func (m *Metrics) RecordCacheDelta(hits, misses int64) {
	if hits > 0 {
		m.CacheLookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		m.CacheLookups.WithLabelValues("miss").Add(float64(misses))
	}
}
