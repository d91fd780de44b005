// Package obsmetrics holds the Prometheus metrics emitted by a crawl,
// grounded on the teacher's standalone-registry agent metrics pattern
// (this engine is not a controller-runtime manager either).
package obsmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all metrics for the crawl engine.
type Collector struct {
	registry *prometheus.Registry

	CrawlsTotal       *prometheus.CounterVec
	CrawlDuration     prometheus.Histogram
	FilesEmittedTotal prometheus.Counter
	FilesSkippedTotal *prometheus.CounterVec
	FilesFailedTotal  prometheus.Counter
	BatchSize         prometheus.Histogram
}

// NewCollector creates and registers all crawl metrics on a standalone
// registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	c := &Collector{
		registry: reg,

		CrawlsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "git_datasource",
				Subsystem: "crawl",
				Name:      "total",
				Help:      "Total number of crawl invocations by outcome.",
			},
			[]string{"outcome"},
		),
		CrawlDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "git_datasource",
				Subsystem: "crawl",
				Name:      "duration_seconds",
				Help:      "Duration of a full crawl invocation in seconds.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		FilesEmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "git_datasource",
				Subsystem: "crawl",
				Name:      "files_emitted_total",
				Help:      "Total number of file descriptors emitted to the host.",
			},
		),
		FilesSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "git_datasource",
				Subsystem: "crawl",
				Name:      "files_skipped_total",
				Help:      "Total number of files permanently skipped, by reason.",
			},
			[]string{"reason"},
		),
		FilesFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "git_datasource",
				Subsystem: "crawl",
				Name:      "files_failed_total",
				Help:      "Total number of files that failed transiently and were queued for retry.",
			},
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "git_datasource",
				Subsystem: "crawl",
				Name:      "batch_size",
				Help:      "Number of descriptors in each emitted batch.",
				Buckets:   []float64{1, 5, 10, 25, 50},
			},
		),
	}

	reg.MustRegister(
		c.CrawlsTotal,
		c.CrawlDuration,
		c.FilesEmittedTotal,
		c.FilesSkippedTotal,
		c.FilesFailedTotal,
		c.BatchSize,
	)

	return c
}

// Handler returns an http.Handler that serves the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
