// Package metrics exposes download engine activity as Prometheus metrics.
//
// Metrics, prefixed with the namespace given to New:
//   - {ns}_downloads_total{outcome}: finished downloads by terminal state
//   - {ns}_downloaded_bytes_total: bytes written to destination files
//   - {ns}_downloads_in_flight: downloads between start and terminal state
//   - {ns}_download_duration_seconds{outcome}: wall time from start to terminal state
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "fetchd"

// Collector records engine activity. It satisfies download.Recorder.
type Collector struct {
	registry  *prometheus.Registry
	downloads *prometheus.CounterVec
	bytes     prometheus.Counter
	inFlight  prometheus.Gauge
	duration  *prometheus.HistogramVec
}

// New creates a Collector registered on its own registry, so several engines
// (or tests) never collide on the global default registry.
func New(namespace string) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Finished downloads by outcome.",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written to destination files.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_flight",
			Help:      "Downloads currently probing or transferring.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time from start to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"outcome"}),
	}

	for _, col := range []prometheus.Collector{c.downloads, c.bytes, c.inFlight, c.duration} {
		if err := c.registry.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DownloadStarted marks one more download in flight.
func (c *Collector) DownloadStarted() {
	c.inFlight.Inc()
}

// DownloadFinished records the terminal state of a download.
func (c *Collector) DownloadFinished(outcome string, bytes int64, elapsed time.Duration) {
	c.inFlight.Dec()
	c.downloads.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		c.bytes.Add(float64(bytes))
	}
	c.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
