// Package metrics provides Prometheus metrics for provider calls and caches.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports provider and cache metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	providerCalls *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
}

// NewExporter creates a new metrics exporter backed by its own registry.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floralog",
			Name:      "provider_calls_total",
			Help:      "Outbound provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floralog",
			Name:      "cache_hits_total",
			Help:      "Cache hits by cache name.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floralog",
			Name:      "cache_misses_total",
			Help:      "Cache misses by cache name.",
		}, []string{"cache"}),
	}

	registry.MustRegister(e.providerCalls, e.cacheHits, e.cacheMisses)
	return e
}

// ProviderCall records one outbound provider call outcome ("ok", "miss",
// "error", "backoff").
func (e *Exporter) ProviderCall(provider, outcome string) {
	if e == nil {
		return
	}
	e.providerCalls.WithLabelValues(provider, outcome).Inc()
}

// CacheHit records a cache hit for the named cache.
func (e *Exporter) CacheHit(cache string) {
	if e == nil {
		return
	}
	e.cacheHits.WithLabelValues(cache).Inc()
}

// CacheMiss records a cache miss for the named cache.
func (e *Exporter) CacheMiss(cache string) {
	if e == nil {
		return
	}
	e.cacheMisses.WithLabelValues(cache).Inc()
}

// Serve starts an HTTP listener exposing /metrics. It blocks; run it in a
// goroutine.
func (e *Exporter) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("metrics listener started", "addr", addr)
	return server.ListenAndServe()
}
