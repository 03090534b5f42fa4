// Package metrics exposes Prometheus metrics for snapshot loading, caching,
// view builds, exports, and HTTP traffic. Each Collector owns its registry so
// tests and embedded servers never collide on registration.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "semview"

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// Source metrics
	ParseDuration  prometheus.Histogram
	TriplesParsed  prometheus.Counter
	SnapshotsBuilt prometheus.Counter

	// Cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter

	// View metrics
	ViewBuilds    *prometheus.CounterVec
	ViewNodes     prometheus.Histogram
	Exports       *prometheus.CounterVec
	ExportTriples prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing and indexing a source document",
			Buckets:   prometheus.DefBuckets,
		}),
		TriplesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triples_parsed_total",
			Help:      "Total number of triples parsed",
		}),
		SnapshotsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_built_total",
			Help:      "Total number of snapshots parsed and classified",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of snapshot cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of snapshot cache misses",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of snapshots removed from the cache",
		}),
		ViewBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_builds_total",
			Help:      "Total number of view models built",
		}, []string{"truncated"}),
		ViewNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_nodes",
			Help:      "Number of nodes in built view models",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 6),
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of subgraph exports",
		}, []string{"format"}),
		ExportTriples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_triples",
			Help:      "Number of triples in exported subgraphs",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 6),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		c.ParseDuration,
		c.TriplesParsed,
		c.SnapshotsBuilt,
		c.CacheHits,
		c.CacheMisses,
		c.CacheEvictions,
		c.ViewBuilds,
		c.ViewNodes,
		c.Exports,
		c.ExportTriples,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) CacheHit()     { c.CacheHits.Inc() }
func (c *Collector) CacheMiss()    { c.CacheMisses.Inc() }
func (c *Collector) CacheEvicted() { c.CacheEvictions.Inc() }

// SourceParsed records one parse of a source document.
func (c *Collector) SourceParsed(triples int, elapsed time.Duration) {
	c.SnapshotsBuilt.Inc()
	c.TriplesParsed.Add(float64(triples))
	c.ParseDuration.Observe(elapsed.Seconds())
}

// ViewBuilt records one view-model build.
func (c *Collector) ViewBuilt(nodes int, truncated bool) {
	c.ViewBuilds.WithLabelValues(strconv.FormatBool(truncated)).Inc()
	c.ViewNodes.Observe(float64(nodes))
}

// Exported records one subgraph export.
func (c *Collector) Exported(format string, triples int) {
	c.Exports.WithLabelValues(format).Inc()
	c.ExportTriples.Observe(float64(triples))
}

// ObserveHTTP records one HTTP request. route is the route pattern, not the
// raw path, to keep cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
