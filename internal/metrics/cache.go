// Package metrics exposes the cache's operational counters through a
// private Prometheus registry, plus a runtime memory collector for the TUI
// dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheMetrics aggregates the cache's Prometheus collectors. A nil
// *CacheMetrics is a valid no-op recorder, so instrumentation call sites
// never need to guard.
type CacheMetrics struct {
	registry *prometheus.Registry

	hits          prometheus.Counter
	misses        prometheus.Counter
	evictions     prometheus.Counter
	downloads     prometheus.Counter
	downloadBytes prometheus.Counter
	revalidations *prometheus.CounterVec
	cacheBytes    prometheus.Gauge
	cacheEntries  prometheus.Gauge
}

// New creates and registers the cache collectors on a private registry.
func New() *CacheMetrics {
	m := &CacheMetrics{
		registry: prometheus.NewRegistry(),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcache_hits_total",
			Help: "Cache lookups served from disk.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcache_misses_total",
			Help: "Cache lookups that required a download.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcache_evictions_total",
			Help: "Entries evicted to respect the size limit.",
		}),
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcache_downloads_total",
			Help: "Completed image downloads.",
		}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgcache_download_bytes_total",
			Help: "Bytes downloaded from origins.",
		}),
		revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgcache_revalidations_total",
			Help: "Revalidation round trips by outcome.",
		}, []string{"outcome"}),
		cacheBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imgcache_bytes",
			Help: "Current total size of cached blobs.",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imgcache_entries",
			Help: "Current number of cached entries.",
		}),
	}

	m.registry.MustRegister(
		m.hits, m.misses, m.evictions,
		m.downloads, m.downloadBytes, m.revalidations,
		m.cacheBytes, m.cacheEntries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *CacheMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncHit records a lookup served from disk.
func (m *CacheMetrics) IncHit() {
	if m != nil {
		m.hits.Inc()
	}
}

// IncMiss records a lookup that required a download.
func (m *CacheMetrics) IncMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

// IncEviction records one evicted entry.
func (m *CacheMetrics) IncEviction() {
	if m != nil {
		m.evictions.Inc()
	}
}

// AddDownload records one completed download of n bytes.
func (m *CacheMetrics) AddDownload(n int) {
	if m != nil {
		m.downloads.Inc()
		m.downloadBytes.Add(float64(n))
	}
}

// IncRevalidation records one revalidation round trip by outcome label.
func (m *CacheMetrics) IncRevalidation(outcome string) {
	if m != nil {
		m.revalidations.WithLabelValues(outcome).Inc()
	}
}

// SetUsage updates the cache size gauges.
func (m *CacheMetrics) SetUsage(bytes int64, entries int) {
	if m != nil {
		m.cacheBytes.Set(float64(bytes))
		m.cacheEntries.Set(float64(entries))
	}
}
