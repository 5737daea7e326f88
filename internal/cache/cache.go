package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Sweep(ctx context.Context) (int, error)
	Close() error
}

// Entry represents a cached model result. AccessedAt and AccessCount are
// only maintained by MemoryCache.
type Entry struct {
	Key         string          `json:"key"`
	Operation   string          `json:"operation"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	AccessedAt  time.Time       `json:"accessed_at"`
	AccessCount int             `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	Type           string        `json:"type"`
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// MemoryCache implements in-memory cache
type MemoryCache struct {
	entries   map[string]*Entry
	mutex     sync.RWMutex
	duration  time.Duration
	hitCount  int64
	missCount int64
	now       func() time.Time
}

// NewMemoryCache creates a new in-memory cache. Expired entries are dropped on
// access and by Sweep.
func NewMemoryCache(duration time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:  make(map[string]*Entry),
		duration: duration,
		now:      time.Now,
	}
}

// Get retrieves a copy of an entry from cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*Entry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, ErrCacheMiss
	}

	if c.now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.missCount++
		return nil, ErrCacheMiss
	}

	entry.AccessedAt = c.now()
	entry.AccessCount++
	c.hitCount++

	var out Entry
	if err := copier.CopyWithOption(&out, entry, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copying cache entry: %w", err)
	}
	return &out, nil
}

// Set stores a copy of entry in cache
func (c *MemoryCache) Set(ctx context.Context, key string, entry *Entry) error {
	var stored Entry
	if err := copier.CopyWithOption(&stored, entry, copier.Option{DeepCopy: true}); err != nil {
		return fmt.Errorf("copying cache entry: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now
	stored.AccessCount = 0

	c.entries[key] = &stored
	return nil
}

// Delete removes an entry from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if an unexpired entry exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return false, nil
	}
	return !c.now().After(entry.ExpiresAt), nil
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*Entry)
	c.hitCount = 0
	c.missCount = 0
	return nil
}

// GetStats returns cache statistics
func (c *MemoryCache) GetStats(ctx context.Context) (*Stats, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := &Stats{
		Type:         "memory",
		TotalEntries: len(c.entries),
		HitCount:     c.hitCount,
		MissCount:    c.missCount,
	}

	if c.hitCount+c.missCount > 0 {
		stats.HitRate = float64(c.hitCount) / float64(c.hitCount+c.missCount)
	}

	var totalAge time.Duration
	now := c.now()

	for _, entry := range c.entries {
		// Calculate memory usage (rough estimate)
		data, _ := json.Marshal(entry)
		stats.MemoryUsage += int64(len(data))

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		totalAge += now.Sub(entry.CreatedAt)

		if now.After(entry.ExpiresAt) {
			stats.ExpiredEntries++
		}
	}

	if len(c.entries) > 0 {
		stats.AverageAge = totalAge / time.Duration(len(c.entries))
	}

	return stats, nil
}

// Sweep removes expired entries and returns how many were dropped
func (c *MemoryCache) Sweep(ctx context.Context) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close releases resources
func (c *MemoryCache) Close() error {
	return nil
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) (*Entry, error)      { return nil, ErrCacheMiss }
func (NoopCache) Set(ctx context.Context, key string, entry *Entry) error { return nil }
func (NoopCache) Delete(ctx context.Context, key string) error            { return nil }
func (NoopCache) Exists(ctx context.Context, key string) (bool, error)    { return false, nil }
func (NoopCache) Clear(ctx context.Context) error                         { return nil }
func (NoopCache) Sweep(ctx context.Context) (int, error)                  { return 0, nil }
func (NoopCache) Close() error                                            { return nil }

func (NoopCache) GetStats(ctx context.Context) (*Stats, error) {
	return &Stats{Type: "none"}, nil
}

// Manager handles cache operations with convenience methods
type Manager struct {
	cache Cache
}

// NewManager creates a new cache manager
func NewManager(ctx context.Context, cacheType string, duration time.Duration, bucket string) (*Manager, error) {
	var cache Cache

	switch cacheType {
	case "memory":
		cache = NewMemoryCache(duration)
	case "cloud-storage":
		gcs, err := NewCloudStorageCache(ctx, bucket, duration)
		if err != nil {
			return nil, err
		}
		cache = gcs
	case "none", "":
		cache = NoopCache{}
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}

	return &Manager{cache: cache}, nil
}

// NewManagerWithCache wraps an existing Cache
func NewManagerWithCache(cache Cache) *Manager {
	return &Manager{cache: cache}
}

// GetJSON decodes the cached payload for key into v
func (m *Manager) GetJSON(ctx context.Context, key string, v interface{}) error {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(entry.Payload, v); err != nil {
		return fmt.Errorf("decoding cached payload: %w", err)
	}
	return nil
}

// SetJSON caches v under key
func (m *Manager) SetJSON(ctx context.Context, operation, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	return m.cache.Set(ctx, key, &Entry{Operation: operation, Payload: payload})
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	return m.cache.GetStats(ctx)
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Sweep removes expired entries
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.cache.Sweep(ctx)
}

// Close releases the underlying cache
func (m *Manager) Close() error {
	return m.cache.Close()
}

// GenerateKey generates a cache key for an operation and its inputs
func GenerateKey(operation string, parts ...string) string {
	// Create MD5 hash for consistent key length
	hash := md5.Sum([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%s:%x", operation, hash)
}

// IsMiss reports whether err is a cache miss
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Common cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
)
