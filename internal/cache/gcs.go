package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const expiresAtMetadata = "expires-at"

// CloudStorageCache implements cache using Google Cloud Storage with JSON format
type CloudStorageCache struct {
	client     *storage.Client
	bucketName string
	duration   time.Duration
	prefix     string
}

// NewCloudStorageCache creates a new Cloud Storage cache
func NewCloudStorageCache(ctx context.Context, bucketName string, duration time.Duration) (*CloudStorageCache, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &CloudStorageCache{
		client:     client,
		bucketName: bucketName,
		duration:   duration,
		prefix:     "cache/",
	}, nil
}

func (c *CloudStorageCache) objectName(key string) string {
	// Keys contain ':' which is legal in object names but awkward in the console.
	return c.prefix + strings.ReplaceAll(key, ":", "/") + ".json"
}

// Get retrieves an entry from Cloud Storage
func (c *CloudStorageCache) Get(ctx context.Context, key string) (*Entry, error) {
	obj := c.client.Bucket(c.bucketName).Object(c.objectName(key))

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object data: %w", err)
	}

	entry, err := decodeEntry(data, time.Now())
	if errors.Is(err, ErrCacheMiss) {
		if err := c.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("deleting expired entry: %w", err)
		}
		return nil, ErrCacheMiss
	}
	return entry, err
}

// decodeEntry parses a stored object and reports expired entries as misses.
// Objects are written once, so access fields keep their values from Set.
func decodeEntry(data []byte, now time.Time) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling cache entry: %w", err)
	}
	if now.After(entry.ExpiresAt) {
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

// Set stores an entry in Cloud Storage
func (c *CloudStorageCache) Set(ctx context.Context, key string, entry *Entry) error {
	obj := c.client.Bucket(c.bucketName).Object(c.objectName(key))

	now := time.Now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.Metadata = map[string]string{
		expiresAtMetadata: stored.ExpiresAt.UTC().Format(time.RFC3339),
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("writing object data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing object writer: %w", err)
	}

	return nil
}

// Delete removes an entry from Cloud Storage
func (c *CloudStorageCache) Delete(ctx context.Context, key string) error {
	obj := c.client.Bucket(c.bucketName).Object(c.objectName(key))

	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Exists checks if an unexpired entry exists in Cloud Storage
func (c *CloudStorageCache) Exists(ctx context.Context, key string) (bool, error) {
	attrs, err := c.client.Bucket(c.bucketName).Object(c.objectName(key)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("getting object attributes: %w", err)
	}
	return !expired(attrs, time.Now()), nil
}

// Clear removes all cache objects
func (c *CloudStorageCache) Clear(ctx context.Context) error {
	_, err := c.walk(ctx, func(attrs *storage.ObjectAttrs) bool { return true })
	return err
}

// Sweep removes expired cache objects
func (c *CloudStorageCache) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	return c.walk(ctx, func(attrs *storage.ObjectAttrs) bool { return expired(attrs, now) })
}

// walk deletes every object under the prefix for which remove returns true
func (c *CloudStorageCache) walk(ctx context.Context, remove func(*storage.ObjectAttrs) bool) (int, error) {
	bucket := c.client.Bucket(c.bucketName)
	it := bucket.Objects(ctx, &storage.Query{Prefix: c.prefix})

	removed := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("listing objects: %w", err)
		}
		if !remove(attrs) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return removed, fmt.Errorf("deleting object %s: %w", attrs.Name, err)
		}
		removed++
	}
	return removed, nil
}

// GetStats returns object counts for the cache prefix
func (c *CloudStorageCache) GetStats(ctx context.Context) (*Stats, error) {
	it := c.client.Bucket(c.bucketName).Objects(ctx, &storage.Query{Prefix: c.prefix})

	stats := &Stats{Type: "cloud-storage"}
	now := time.Now()
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}

		stats.TotalEntries++
		stats.MemoryUsage += attrs.Size
		if stats.OldestEntry.IsZero() || attrs.Created.Before(stats.OldestEntry) {
			stats.OldestEntry = attrs.Created
		}
		if expired(attrs, now) {
			stats.ExpiredEntries++
		}
	}
	return stats, nil
}

// Close closes the storage client
func (c *CloudStorageCache) Close() error {
	return c.client.Close()
}

// expired reads the expiry stamp from object metadata. Objects without one are kept.
func expired(attrs *storage.ObjectAttrs, now time.Time) bool {
	raw, ok := attrs.Metadata[expiresAtMetadata]
	if !ok {
		return false
	}
	expiresAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	return now.After(expiresAt)
}
