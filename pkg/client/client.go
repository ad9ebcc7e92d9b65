// Package client provides the HTTP client for the remote Pokémon API with
// client-side rate limiting, response caching and error classification.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pokedex-client/pkg/cache"
	"github.com/Sternrassler/pokedex-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public Pokémon API.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Client is the Pokémon API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root; relative endpoints are resolved against it.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Redis enables the response cache when non-nil.
	Redis *redis.Client

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// RateLimit in requests per second (0 disables) and its burst size.
	RateLimit float64
	Burst     int
}

// DefaultConfig returns a default configuration for the public API.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Redis:     redis,
		Timeout:   15 * time.Second,
		RateLimit: 20,
		Burst:     40,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	logger := log.With().Str("component", "pokeapi-client").Logger()

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		limiter:    ratelimit.NewLimiter(cfg.RateLimit, cfg.Burst, logger),
		config:     cfg,
		logger:     logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// Do performs a GET-style request with rate limiting, caching and error
// classification. Any non-nil error is an *APIError. On success the caller
// owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(&APIError{
			ErrorClass: ErrorClassNetwork,
			Endpoint:   req.URL.Path,
			Message:    "rate limit wait aborted",
			Err:        err,
		}, endpoint, "aborted")
	}

	var cacheKey cache.CacheKey
	var cachedEntry *cache.CacheEntry
	if c.cache != nil {
		cacheKey = cache.KeyForURL(req.URL)
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry
	}

	if cachedEntry != nil && !cachedEntry.IsExpired() {
		c.logger.Debug().
			Str("path", req.URL.Path).
			Dur("age", cachedEntry.Age()).
			Dur("ttl", cachedEntry.TTL()).
			Msg("Serving response from cache")
		apiRequestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if cachedEntry != nil && cache.CanRevalidate(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("path", req.URL.Path).
			Str("etag", cachedEntry.ETag).
			Dur("age", cachedEntry.Age()).
			Msg("Making conditional request")
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(&APIError{
			ErrorClass: ErrorClassNetwork,
			Endpoint:   req.URL.Path,
			Err:        err,
		}, endpoint, "network_error")
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		cache.NotModifiedResponses.Inc()
		apiRequestsTotal.WithLabelValues(endpoint, "304").Inc()

		if err := c.cache.Refresh(ctx, cacheKey, cache.ExpiresFromHeaders(resp.Header)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		class := classifyStatus(resp.StatusCode)
		c.logger.Debug().
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")
		return nil, c.fail(&APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Endpoint:   req.URL.Path,
			Message:    resp.Status,
		}, endpoint, strconv.Itoa(resp.StatusCode))
	}

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// fail records metrics for a failed request and returns apiErr.
func (c *Client) fail(apiErr *APIError, endpoint, status string) error {
	apiErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
	apiRequestsTotal.WithLabelValues(endpoint, status).Inc()
	return apiErr
}

// classifyStatus maps an HTTP error status to an ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

// endpointLabel reduces a request path to its resource name so metric
// cardinality stays bounded: /api/v2/pokemon/25 -> /pokemon.
func endpointLabel(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		if s == "v2" && i+1 < len(segs) {
			return "/" + segs[i+1]
		}
	}
	if segs[0] != "" {
		return "/" + segs[0]
	}
	return "/"
}

// ResolveURL turns an endpoint into an absolute URL. Absolute endpoints
// (such as move URLs embedded in API payloads) are used as is; relative ones
// are appended to the base URL path.
func (c *Client) ResolveURL(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return &u, nil
}

// Get performs a GET request to an endpoint.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	u, err := c.ResolveURL(endpoint)
	if err != nil {
		return nil, &APIError{ErrorClass: ErrorClassNetwork, Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &APIError{ErrorClass: ErrorClassNetwork, Endpoint: endpoint, Message: "create request", Err: err}
	}

	return c.Do(req)
}

// GetJSON performs a GET request and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, endpoint string, v any) error {
	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Endpoint:   resp.Request.URL.Path,
			Err:        err,
		}
	}
	return nil
}

// BaseURL returns a copy of the configured base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Close releases client resources. The Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetCache returns the cache manager, nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
