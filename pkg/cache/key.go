package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "pokeapi"

// CacheKey identifies one cached API response.
type CacheKey struct {
	// Host is the API host; two base URLs never share entries.
	Host string

	// Endpoint is the request path (e.g. "/api/v2/pokemon/pikachu").
	Endpoint string

	// QueryParams are the request query parameters (e.g. offset, limit).
	QueryParams url.Values
}

// KeyForURL builds the key for a request URL.
func KeyForURL(u *url.URL) CacheKey {
	return CacheKey{
		Host:        u.Host,
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: pokeapi:host:path:query1=val1:query2=val2
//
// Example:
//
//	pokeapi:pokeapi.co:api/v2/pokemon:limit=20:offset=40
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if k.Host != "" {
		parts = append(parts, strings.ToLower(k.Host))
	}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
