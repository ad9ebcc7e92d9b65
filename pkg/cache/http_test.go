package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	lastMod := time.Now().Add(-1 * time.Hour).UTC().Truncate(time.Second)
	resp := &http.Response{
		StatusCode: 200,
		Header: http.Header{
			"Cache-Control": []string{"public, max-age=600"},
			"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
			"Etag":          []string{`W/"abc123"`},
		},
		Body: io.NopCloser(bytes.NewReader([]byte(`{"name":"bulbasaur"}`))),
	}

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if string(entry.Data) != `{"name":"bulbasaur"}` {
		t.Errorf("Data = %s", entry.Data)
	}
	if entry.ETag != `W/"abc123"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if ttl := entry.TTL(); ttl < 9*time.Minute || ttl > 10*time.Minute {
		t.Errorf("TTL() = %v, want about 10m", ttl)
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Error("Response body was not restored")
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestExpiresFromHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		minTTL time.Duration
		maxTTL time.Duration
	}{
		{
			name:   "max-age wins over expires",
			header: http.Header{"Cache-Control": {"max-age=60"}, "Expires": {time.Now().Add(time.Hour).Format(http.TimeFormat)}},
			minTTL: 59 * time.Second,
			maxTTL: 60 * time.Second,
		},
		{
			name:   "no-store",
			header: http.Header{"Cache-Control": {"no-store"}},
			minTTL: 0,
			maxTTL: 0,
		},
		{
			name:   "expires header",
			header: http.Header{"Expires": {time.Now().Add(30 * time.Minute).Format(http.TimeFormat)}},
			minTTL: 28 * time.Minute,
			maxTTL: 30 * time.Minute,
		},
		{
			name:   "invalid expires",
			header: http.Header{"Expires": {"not-a-date"}},
			minTTL: DefaultTTL - time.Minute,
			maxTTL: DefaultTTL,
		},
		{
			name:   "no headers",
			header: http.Header{},
			minTTL: DefaultTTL - time.Minute,
			maxTTL: DefaultTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttl := time.Until(ExpiresFromHeaders(tt.header))
			if ttl < 0 {
				ttl = 0
			}
			if ttl < tt.minTTL || ttl > tt.maxTTL {
				t.Errorf("ttl = %v, want in [%v, %v]", ttl, tt.minTTL, tt.maxTTL)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`{"count":1}`),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": {"application/json"}},
	}

	resp := EntryToResponse(entry, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Error("X-Cache header missing")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"count":1}` {
		t.Errorf("body = %s", body)
	}
	if entry.Headers.Get("X-Cache") != "" {
		t.Error("EntryToResponse must not mutate the entry headers")
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	tests := []struct {
		name      string
		entry     *CacheEntry
		wantETag  string
		wantSince bool
	}{
		{"etag preferred", &CacheEntry{ETag: `"x"`, LastModified: time.Now()}, `"x"`, false},
		{"last-modified only", &CacheEntry{LastModified: time.Now()}, "", true},
		{"no validators", &CacheEntry{}, "", false},
		{"nil entry", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since") != ""; got != tt.wantSince {
				t.Errorf("If-Modified-Since set = %v, want %v", got, tt.wantSince)
			}
			if CanRevalidate(tt.entry) != (tt.wantETag != "" || tt.wantSince) {
				t.Error("CanRevalidate disagrees with the headers added")
			}
		})
	}
}
