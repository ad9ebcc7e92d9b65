// Package cache stores remote Pokémon API responses in Redis so that pages
// and detail records which were already fetched are served without another
// round trip.
package cache

import (
	"net/http"
	"time"
)

// CacheEntry is one cached API response.
type CacheEntry struct {
	// Data is the raw response body.
	Data []byte `json:"data"`

	// ETag is replayed as If-None-Match on revalidation.
	ETag string `json:"etag"`

	// Expires is derived from Cache-Control max-age, then Expires, then DefaultTTL.
	Expires time.Time `json:"expires"`

	// LastModified is replayed as If-Modified-Since when no ETag exists.
	LastModified time.Time `json:"last_modified"`

	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	CachedAt   time.Time   `json:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the entry was stored.
func (e *CacheEntry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}
