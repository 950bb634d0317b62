package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and exposes metrics. Each collector owns its own
// registry so independent runs never collide on registration.
type Collector struct {
	registry         *prometheus.Registry
	versesTotal      *prometheus.CounterVec
	duration         prometheus.Histogram
	inflightWorkers  prometheus.Gauge
	checkpointWrites prometheus.Counter
}

// New creates a new metrics collector
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		versesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biblos_verses_processed_total",
				Help: "Total number of verses processed",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "biblos_verse_duration_seconds",
				Help:    "Time taken to process one verse",
				Buckets: prometheus.DefBuckets,
			},
		),
		inflightWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "biblos_inflight_workers",
				Help: "Number of workers currently processing",
			},
		),
		checkpointWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "biblos_checkpoint_writes_total",
				Help: "Total number of checkpoint writes",
			},
		),
	}

	c.registry.MustRegister(c.versesTotal)
	c.registry.MustRegister(c.duration)
	c.registry.MustRegister(c.inflightWorkers)
	c.registry.MustRegister(c.checkpointWrites)

	return c
}

// IncSuccess increments the successful verse counter
func (c *Collector) IncSuccess() {
	c.versesTotal.WithLabelValues("success").Inc()
}

// IncFailed increments the failed verse counter
func (c *Collector) IncFailed() {
	c.versesTotal.WithLabelValues("failed").Inc()
}

// ObserveDuration observes per-verse processing duration
func (c *Collector) ObserveDuration(d time.Duration) {
	c.duration.Observe(d.Seconds())
}

// WorkerBusy marks one worker as processing
func (c *Collector) WorkerBusy() {
	c.inflightWorkers.Inc()
}

// WorkerIdle marks one worker as idle
func (c *Collector) WorkerIdle() {
	c.inflightWorkers.Dec()
}

// IncCheckpointWrite counts a successful checkpoint write
func (c *Collector) IncCheckpointWrite() {
	c.checkpointWrites.Inc()
}

// Handler returns the /metrics HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server
func (c *Collector) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(addr, mux)
}
