// Package metrics exposes the Prometheus registry shared by the module and
// instruments the HTTP front-end. Library metrics are defined next to the
// code that updates them (client, cache, ratelimit, catalog) and registered
// via promauto.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every promauto metric of the module lands in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the matching gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_http_requests_total",
		Help: "HTTP requests served by route pattern and status code",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokedex_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler serves the exposition format for Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Instrument records count and latency of every request, labelled by the chi
// route pattern so path parameters do not multiply series.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Metrics reference
//
// Remote API (pkg/client):
//   - pokeapi_requests_total{endpoint, status} (Counter)
//   - pokeapi_request_duration_seconds{endpoint} (Histogram)
//   - pokeapi_errors_total{class} (Counter): network, server, client, not_found, decode
//
// Cache (pkg/cache):
//   - pokeapi_cache_hits_total, pokeapi_cache_misses_total (Counter)
//   - pokeapi_cache_bytes_written_total (Counter)
//   - pokeapi_conditional_requests_total, pokeapi_304_responses_total (Counter)
//   - pokeapi_cache_errors_total{operation} (Counter)
//
// Rate limiter (pkg/ratelimit):
//   - pokeapi_rate_limit_waits_total (Counter)
//   - pokeapi_rate_limit_wait_seconds (Histogram)
//
// Catalog (pkg/catalog):
//   - pokedex_enrichment_lookups_total{kind, result} (Counter): kind is image or move
//
// HTTP front-end (this package):
//   - pokedex_http_requests_total{route, status} (Counter)
//   - pokedex_http_request_duration_seconds{route} (Histogram)
//
// Example queries:
//
//   # Cache hit rate
//   sum(rate(pokeapi_cache_hits_total[5m])) /
//   (sum(rate(pokeapi_cache_hits_total[5m])) + sum(rate(pokeapi_cache_misses_total[5m])))
//
//   # Share of image lookups that failed
//   rate(pokedex_enrichment_lookups_total{kind="image",result="failed"}[5m])
//     / rate(pokedex_enrichment_lookups_total{kind="image"}[5m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(pokeapi_request_duration_seconds_bucket[5m]))
