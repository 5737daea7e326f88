package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

type summary struct {
	Summary string   `json:"summary"`
	Points  []string `json:"points"`
}

func newEntry(t *testing.T, v interface{}) *Entry {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return &Entry{Operation: "simplify", Payload: payload}
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	entry := newEntry(t, summary{Summary: "Test summary", Points: []string{"a", "b"}})

	if err := cache.Set(ctx, "test-key", entry); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	retrieved, err := cache.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}

	if retrieved.Key != "test-key" {
		t.Errorf("Expected key 'test-key', got '%s'", retrieved.Key)
	}
	if retrieved.Operation != "simplify" {
		t.Errorf("Expected operation 'simplify', got '%s'", retrieved.Operation)
	}
	if string(retrieved.Payload) != string(entry.Payload) {
		t.Errorf("Expected payload %s, got %s", entry.Payload, retrieved.Payload)
	}
	if retrieved.AccessCount != 1 {
		t.Errorf("Expected access count 1, got %d", retrieved.AccessCount)
	}

	exists, err := cache.Exists(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if !exists {
		t.Error("Expected key to exist")
	}

	exists, err = cache.Exists(ctx, "non-existent")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if exists {
		t.Error("Expected key to not exist")
	}

	_, err = cache.Get(ctx, "non-existent")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	ctx := context.Background()

	entry := newEntry(t, summary{Summary: "original"})
	if err := cache.Set(ctx, "key", entry); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	// Mutating the caller's slice must not reach the stored entry.
	entry.Payload[0] = 'X'

	got, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}
	if got.Payload[0] != '{' {
		t.Errorf("Stored payload was mutated through the caller's entry: %s", got.Payload)
	}

	got.Payload[0] = 'Y'
	again, err := cache.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}
	if again.Payload[0] != '{' {
		t.Errorf("Stored payload was mutated through a returned entry: %s", again.Payload)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, "test-key", newEntry(t, summary{Summary: "Test summary"})); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	exists, err := cache.Exists(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if !exists {
		t.Error("Expected key to exist immediately after setting")
	}

	now = now.Add(2 * time.Minute)

	exists, err = cache.Exists(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if exists {
		t.Error("Expected key to not exist after expiration")
	}

	_, err = cache.Get(ctx, "test-key")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiration, got %v", err)
	}
}

func TestMemoryCacheSweep(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("old-%d", i), newEntry(t, i)); err != nil {
			t.Fatalf("Failed to set cache entry %d: %v", i, err)
		}
	}

	now = now.Add(2 * time.Minute)
	if err := cache.Set(ctx, "fresh", newEntry(t, "fresh")); err != nil {
		t.Fatalf("Failed to set fresh entry: %v", err)
	}

	stats, err := cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.ExpiredEntries != 3 {
		t.Errorf("Expected 3 expired entries before sweep, got %d", stats.ExpiredEntries)
	}

	removed, err := cache.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Expected 3 removed entries, got %d", removed)
	}

	stats, err = cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", stats.TotalEntries)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", newEntry(t, "value")); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	if err := cache.Delete(ctx, "test-key"); err != nil {
		t.Fatalf("Failed to delete cache entry: %v", err)
	}

	exists, err := cache.Exists(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if exists {
		t.Error("Expected key to not exist after deletion")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cache.Set(ctx, fmt.Sprintf("test-key-%d", i), newEntry(t, i))
		if err != nil {
			t.Fatalf("Failed to set cache entry %d: %v", i, err)
		}
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}

	for i := 0; i < 3; i++ {
		exists, err := cache.Exists(ctx, fmt.Sprintf("test-key-%d", i))
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if exists {
			t.Errorf("Expected key %d to not exist after clear", i)
		}
	}
}

func TestMemoryCacheStats(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", newEntry(t, "value")); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	stats, err := cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("Expected 1 total entry, got %d", stats.TotalEntries)
	}
	if stats.MemoryUsage <= 0 {
		t.Error("Expected positive memory usage estimate")
	}

	// Trigger a hit
	if _, err := cache.Get(ctx, "test-key"); err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}

	// Trigger a miss
	if _, err := cache.Get(ctx, "non-existent"); err != ErrCacheMiss {
		t.Errorf("Expected cache miss, got %v", err)
	}

	stats, err = cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get updated stats: %v", err)
	}

	if stats.HitCount != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.HitCount)
	}
	if stats.MissCount != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.MissCount)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestCacheManager(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(ctx, "memory", 1*time.Hour, "")
	if err != nil {
		t.Fatalf("Failed to create cache manager: %v", err)
	}
	defer manager.Close()

	want := summary{Summary: "Test summary", Points: []string{"one", "two"}}
	key := GenerateKey("simplify", "some text")

	var got summary
	if err := manager.GetJSON(ctx, key, &got); !IsMiss(err) {
		t.Fatalf("Expected miss before set, got %v", err)
	}

	if err := manager.SetJSON(ctx, "simplify", key, want); err != nil {
		t.Fatalf("Failed to set JSON: %v", err)
	}

	if err := manager.GetJSON(ctx, key, &got); err != nil {
		t.Fatalf("Failed to get JSON: %v", err)
	}
	if got.Summary != want.Summary || len(got.Points) != 2 {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	stats, err := manager.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Type != "memory" {
		t.Errorf("Expected memory stats, got %s", stats.Type)
	}
}

func TestNewManagerTypes(t *testing.T) {
	ctx := context.Background()

	manager, err := NewManager(ctx, "none", time.Hour, "")
	if err != nil {
		t.Fatalf("Failed to create noop manager: %v", err)
	}
	if err := manager.SetJSON(ctx, "op", "key", "value"); err != nil {
		t.Errorf("Noop set should succeed, got %v", err)
	}
	var v string
	if err := manager.GetJSON(ctx, "key", &v); !IsMiss(err) {
		t.Errorf("Noop get should miss, got %v", err)
	}

	if _, err := NewManager(ctx, "redis", time.Hour, ""); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("translate", "ar", "content")

	if !strings.HasPrefix(key, "translate:") {
		t.Errorf("Expected key to start with 'translate:', got '%s'", key)
	}
	// md5 hex digest
	if len(key) != len("translate:")+32 {
		t.Errorf("Unexpected key length %d for '%s'", len(key), key)
	}

	if key != GenerateKey("translate", "ar", "content") {
		t.Error("Expected consistent key generation")
	}
	if key == GenerateKey("translate", "es", "content") {
		t.Error("Expected different keys for different languages")
	}
	// Part boundaries are significant.
	if GenerateKey("op", "ab", "c") == GenerateKey("op", "a", "bc") {
		t.Error("Expected part boundaries to affect the key")
	}
}

func TestDecodeEntry(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := Entry{
		Key:         "simplify:abc",
		Operation:   "simplify",
		Payload:     json.RawMessage(`{"summary":"s"}`),
		CreatedAt:   created,
		ExpiresAt:   created.Add(time.Hour),
		AccessedAt:  created,
		AccessCount: 0,
	}
	data, err := json.Marshal(&stored)
	if err != nil {
		t.Fatalf("Failed to marshal entry: %v", err)
	}

	entry, err := decodeEntry(data, created.Add(time.Minute))
	if err != nil {
		t.Fatalf("decodeEntry failed: %v", err)
	}
	if entry.AccessCount != 0 || !entry.AccessedAt.Equal(created) {
		t.Errorf("Expected stored access fields, got count=%d accessed=%v", entry.AccessCount, entry.AccessedAt)
	}
	if string(entry.Payload) != `{"summary":"s"}` {
		t.Errorf("Unexpected payload %s", entry.Payload)
	}

	if _, err := decodeEntry(data, created.Add(2*time.Hour)); !IsMiss(err) {
		t.Errorf("Expected expired entry to be a miss, got %v", err)
	}
	if _, err := decodeEntry([]byte("{"), created); err == nil || IsMiss(err) {
		t.Errorf("Expected decode error, got %v", err)
	}
}
