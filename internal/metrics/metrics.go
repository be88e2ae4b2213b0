// Package metrics collects pipeline counters on a private registry and
// exports them as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "medlens"

// Collector holds the pipeline metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	FallbackTotal    prometheus.Counter
	ClassifierErrors prometheus.Counter

	FieldHitsTotal   *prometheus.CounterVec
	FieldErrorsTotal *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "analyses_total",
			Help:      "Total analyses by kind (symptom, document) and outcome.",
		}, []string{"kind", "outcome"}),

		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analysis latency distribution by kind.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"kind"}),

		FallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "symptom",
			Name:      "fallback_total",
			Help:      "Symptom analyses answered by the keyword fallback.",
		}),

		ClassifierErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "symptom",
			Name:      "classifier_errors_total",
			Help:      "Severity classifier failures.",
		}),

		FieldHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "document",
			Name:      "field_hits_total",
			Help:      "Document fields found in the text, by field.",
		}, []string{"field"}),

		FieldErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "document",
			Name:      "field_errors_total",
			Help:      "Document field extractors that failed, by field.",
		}, []string{"field"}),

		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Symptom analyses served from cache.",
		}),

		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Symptom analyses computed because the cache had no entry.",
		}),
	}

	c.registry.MustRegister(
		c.AnalysesTotal,
		c.AnalysisDuration,
		c.FallbackTotal,
		c.ClassifierErrors,
		c.FieldHitsTotal,
		c.FieldErrorsTotal,
		c.CacheHitsTotal,
		c.CacheMissesTotal,
	)

	return c
}

// Registry exposes the private registry as a gatherer
func (c *Collector) Registry() prometheus.Gatherer {
	return c.registry
}

// ObserveAnalysis records one finished analysis
func (c *Collector) ObserveAnalysis(kind string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.AnalysesTotal.WithLabelValues(kind, outcome).Inc()
	c.AnalysisDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Fallback records a fallback-path symptom analysis
func (c *Collector) Fallback() {
	if c == nil {
		return
	}
	c.FallbackTotal.Inc()
}

// ClassifierError records a classifier failure
func (c *Collector) ClassifierError() {
	if c == nil {
		return
	}
	c.ClassifierErrors.Inc()
}

// FieldHit records a document field that was found
func (c *Collector) FieldHit(field string) {
	if c == nil {
		return
	}
	c.FieldHitsTotal.WithLabelValues(field).Inc()
}

// FieldError records a failed field extractor
func (c *Collector) FieldError(field string) {
	if c == nil {
		return
	}
	c.FieldErrorsTotal.WithLabelValues(field).Inc()
}

// CacheResult records a cache lookup
func (c *Collector) CacheResult(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHitsTotal.Inc()
	} else {
		c.CacheMissesTotal.Inc()
	}
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The write is atomic, as node-exporter's textfile collector expects.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
