// Package ratelimit gates outgoing requests to the remote Pokémon API so the
// enrichment fan-out stays within the API's fair-use policy.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pokeapi_rate_limit_waits_total",
		Help: "Total number of requests that had to wait for a rate limit token",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pokeapi_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a rate limit token",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// slowWait is the wait above which a throttled request is logged.
const slowWait = 500 * time.Millisecond

// Limiter is a token bucket shared by every request of one client.
// A nil *Limiter allows everything.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewLimiter creates a limiter admitting perSecond requests with the given
// burst. perSecond <= 0 disables limiting and returns nil.
func NewLimiter(perSecond float64, burst int, logger zerolog.Logger) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	if l.limiter.Allow() {
		return nil
	}

	start := time.Now()
	rateLimitWaitsTotal.Inc()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	waited := time.Since(start)
	rateLimitWaitSeconds.Observe(waited.Seconds())
	if waited > slowWait {
		l.logger.Debug().
			Dur("waited", waited).
			Msg("Request throttled by client-side rate limit")
	}
	return nil
}

// Limit returns the configured rate in requests per second (0 when unlimited).
func (l *Limiter) Limit() float64 {
	if l == nil {
		return 0
	}
	return float64(l.limiter.Limit())
}
