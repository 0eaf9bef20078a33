package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers mount and cache metrics into its own prometheus
// registry. A nil *Collector is valid and records nothing, so library users
// who never opt in pay no cost.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	operationCounter *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheSizeGauge   prometheus.Gauge
	decompressions   prometheus.Counter
	streamedReads    prometheus.Counter
	mountsActive     prometheus.Gauge
	handlesReclaimed prometheus.Counter
}

// Config represents metrics configuration
type Config struct {
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// NewCollector creates a metrics collector with its own registry.
func NewCollector(config *Config) *Collector {
	if config == nil {
		config = &Config{Namespace: "archivefs", Path: "/metrics"}
	}
	if config.Namespace == "" {
		config.Namespace = "archivefs"
	}

	c := &Collector{
		config:   config,
		registry: prometheus.NewRegistry(),
	}

	c.operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "operations_total",
		Help:      "Mount operations by type and outcome.",
	}, []string{"operation", "outcome"})

	c.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "cache_hits_total",
		Help:      "Content cache hits.",
	})

	c.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "cache_misses_total",
		Help:      "Content cache misses.",
	})

	c.cacheSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "cache_size_bytes",
		Help:      "Cumulative size of cached content.",
	})

	c.decompressions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "decompressions_total",
		Help:      "Archive entry streams opened for decompression.",
	})

	c.streamedReads = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "streamed_reads_total",
		Help:      "Reads served as forward-only streams because the file exceeded the cache ceiling.",
	})

	c.mountsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "mounts_active",
		Help:      "Mounts constructed and not yet reclaimed or closed.",
	})

	c.handlesReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "handles_reclaimed_total",
		Help:      "Archive handles closed by the reclamation sweep.",
	})

	c.registry.MustRegister(
		c.operationCounter,
		c.cacheHits,
		c.cacheMisses,
		c.cacheSizeGauge,
		c.decompressions,
		c.streamedReads,
		c.mountsActive,
		c.handlesReclaimed,
	)

	return c
}

// Handler returns an http.Handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOperation counts one mount operation and its outcome.
func (c *Collector) RecordOperation(operation string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.operationCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordCacheHit counts a content cache hit.
func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

// RecordCacheMiss counts a content cache miss.
func (c *Collector) RecordCacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

// SetCacheSize records the cache's current weight.
func (c *Collector) SetCacheSize(bytes int64) {
	if c == nil {
		return
	}
	c.cacheSizeGauge.Set(float64(bytes))
}

// RecordDecompression counts one archive decompression.
func (c *Collector) RecordDecompression() {
	if c == nil {
		return
	}
	c.decompressions.Inc()
}

// RecordStreamedRead counts a read served past the cache.
func (c *Collector) RecordStreamedRead() {
	if c == nil {
		return
	}
	c.streamedReads.Inc()
}

// MountOpened records a successful mount construction.
func (c *Collector) MountOpened() {
	if c == nil {
		return
	}
	c.mountsActive.Inc()
}

// MountClosed records a mount closed explicitly or by the reclaimer.
func (c *Collector) MountClosed() {
	if c == nil {
		return
	}
	c.mountsActive.Dec()
}

// RecordReclaimedHandle counts a handle closed by the reclamation sweep.
func (c *Collector) RecordReclaimedHandle() {
	if c == nil {
		return
	}
	c.handlesReclaimed.Inc()
	c.mountsActive.Dec()
}
