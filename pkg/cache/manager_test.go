package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test when none is
// running. tests/integration covers the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	key := CacheKey{Host: "pokeapi.co", Endpoint: "/api/v2/pokemon/pikachu"}
	entry := &CacheEntry{
		Data:       []byte(`{"name":"pikachu"}`),
		ETag:       `"abc123"`,
		Expires:    time.Now().Add(5 * time.Minute),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != string(entry.Data) || got.ETag != entry.ETag {
		t.Errorf("Get returned %+v, want %+v", got, entry)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	_, err := manager.Get(context.Background(), CacheKey{Endpoint: "/api/v2/pokemon/missingno"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_ExpiredWithoutValidators(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/api/v2/move/1"}

	entry := &CacheEntry{
		Data:    []byte(`{}`),
		Expires: time.Now().Add(-1 * time.Hour),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManager_ExpiredWithETagIsKeptForRevalidation(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/api/v2/move/2"}

	entry := &CacheEntry{
		Data:    []byte(`{}`),
		ETag:    `"v1"`,
		Expires: time.Now().Add(-1 * time.Minute),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.IsExpired() {
		t.Error("entry should still be reported as expired")
	}

	newExpires := time.Now().Add(10 * time.Minute)
	if err := manager.Refresh(ctx, key, newExpires); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	got, err = manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Refresh failed: %v", err)
	}
	if diff := got.Expires.Sub(newExpires); diff < -time.Second || diff > time.Second {
		t.Errorf("Expires = %v, want %v", got.Expires, newExpires)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/api/v2/pokemon"}

	entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(5 * time.Minute)}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Set(context.Background(), CacheKey{Endpoint: "/x"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}
