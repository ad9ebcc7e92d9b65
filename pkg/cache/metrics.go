package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts responses served from Redis.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_hits_total",
			Help: "Total number of API responses served from cache",
		},
	)

	// CacheMisses counts lookups that found no usable entry.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_misses_total",
			Help: "Total number of API cache misses",
		},
	)

	// CacheBytesWritten counts payload bytes stored in Redis.
	CacheBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_written_bytes_total",
			Help: "Total bytes of API responses written to cache",
		},
	)

	// ConditionalRequestsSent counts revalidation requests carrying If-None-Match/If-Modified-Since.
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_conditional_requests_total",
			Help: "Total number of conditional requests sent to the API",
		},
	)

	// NotModifiedResponses counts 304 answers to conditional requests.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokeapi_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CacheErrors counts failed Redis operations.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokeapi_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
