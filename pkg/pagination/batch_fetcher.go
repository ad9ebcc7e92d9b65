package pagination

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of lookups in flight per batch.
	MaxConcurrency int
	// Timeout bounds each individual lookup.
	Timeout time.Duration
}

// DefaultConfig returns a configuration suited to the public API.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 20,
		Timeout:        15 * time.Second,
	}
}

// Settled is the outcome of one lookup in a batch.
type Settled[T any] struct {
	Index int
	Value T
	Err   error
}

// OK reports whether the lookup succeeded.
func (s Settled[T]) OK() bool {
	return s.Err == nil
}

// BatchFetcher runs batches of independent lookups in parallel.
type BatchFetcher struct {
	config Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 20
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &BatchFetcher{config: config}
}

// Config returns the effective configuration.
func (bf *BatchFetcher) Config() Config {
	return bf.config
}

// FetchAll runs fetch once per input, at most MaxConcurrency at a time, and
// returns after every call has settled. result[i] always belongs to
// inputs[i], whatever the completion order. A failing lookup never cancels
// the others; cancelling ctx makes the remaining lookups fail fast. An empty
// input returns nil without calling fetch.
func FetchAll[In, Out any](ctx context.Context, bf *BatchFetcher, inputs []In, fetch func(context.Context, In) (Out, error)) []Settled[Out] {
	if len(inputs) == 0 {
		return nil
	}

	start := time.Now()
	results := make([]Settled[Out], len(inputs))

	var g errgroup.Group
	g.SetLimit(bf.config.MaxConcurrency)

	for i, in := range inputs {
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
			defer cancel()

			v, err := fetch(itemCtx, in)
			results[i] = Settled[Out]{Index: i, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	log.Debug().
		Int("lookups", len(inputs)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch settled")

	return results
}
