package logstream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
)

// CacheEntry is a cached response body.
type CacheEntry struct {
	Key      string
	Data     []byte
	StoredAt time.Time
}

// Cache is the interface for cache backends. Backends stamp StoredAt when the
// entry arrives without one and treat entries older than their TTL as absent.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheKey derives the key for an operation and its discriminating argument,
// e.g. CacheKey("schema", "web") is "schema:web" and CacheKey("about") is
// "about".
func CacheKey(operation string, args ...string) string {
	if len(args) == 0 {
		return operation
	}

	return operation + ":" + strings.Join(args, ":")
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// MemoryCache is an in-memory TTL cache. It has no size cap; the set of
// cached operations is small and fixed.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a memory cache. A non-positive ttl uses the default
// of 60 seconds.
func NewMemoryCache(ttl time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	if ttl <= 0 {
		ttl = constants.CacheTTL
	}

	cache := &MemoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// TTL returns the lifetime of an entry.
func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}

// Get retrieves an entry. Reading an expired entry removes it.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, ErrCacheKeyNotFound
	}

	if c.expired(entry) {
		c.mu.Lock()
		// Only drop the entry we saw; a concurrent Set may have replaced it.
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set stores an entry, stamping StoredAt when it is zero.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	stored := *entry
	stored.Key = key

	if stored.StoredAt.IsZero() {
		stored.StoredAt = c.now()
	}

	c.mu.Lock()
	c.entries[key] = &stored
	c.mu.Unlock()

	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mu.Unlock()

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]

	return exists && !c.expired(entry)
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *MemoryCache) expired(entry *CacheEntry) bool {
	return c.now().Sub(entry.StoredAt) >= c.ttl
}

// CacheStats tracks cache statistics.
type CacheStats struct {
	Hits          int64 `json:"hits"          yaml:"hits"`
	Misses        int64 `json:"misses"        yaml:"misses"`
	Sets          int64 `json:"sets"          yaml:"sets"`
	Invalidations int64 `json:"invalidations" yaml:"invalidations"`
}

// GetHitRate returns the cache hit rate.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// ResponseCache sits between the client and a Cache backend and keeps
// statistics. A failing backend degrades to cache misses.
type ResponseCache struct {
	backend Cache
	logger  Logger

	hits          atomic.Int64
	misses        atomic.Int64
	sets          atomic.Int64
	invalidations atomic.Int64
}

// NewResponseCache creates a response cache. A nil backend uses an in-memory
// cache with the default TTL.
func NewResponseCache(backend Cache, logger Logger) *ResponseCache {
	if backend == nil {
		backend = NewMemoryCache(constants.CacheTTL)
	}

	return &ResponseCache{
		backend: backend,
		logger:  logger,
	}
}

// Get returns the cached body for key.
func (r *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, err := r.backend.Get(ctx, key)
	if err != nil {
		r.misses.Add(1)

		if !isCacheMiss(err) {
			r.warn("cache read failed", key, err)
		}

		return nil, false
	}

	r.hits.Add(1)

	return entry.Data, true
}

// Set stores a response body under key.
func (r *ResponseCache) Set(ctx context.Context, key string, data []byte) error {
	err := r.backend.Set(ctx, key, &CacheEntry{Key: key, Data: data})
	if err != nil {
		r.warn("cache write failed", key, err)

		return err
	}

	r.sets.Add(1)

	return nil
}

// InvalidateAll drops every entry. Reads already in flight are not affected
// and may store their result afterwards; it expires with the TTL.
func (r *ResponseCache) InvalidateAll(ctx context.Context) error {
	r.invalidations.Add(1)

	err := r.backend.Clear(ctx)
	if err != nil {
		r.warn("cache clear failed", "", err)

		return err
	}

	return nil
}

// Stats returns a snapshot of the counters.
func (r *ResponseCache) Stats() CacheStats {
	return CacheStats{
		Hits:          r.hits.Load(),
		Misses:        r.misses.Load(),
		Sets:          r.sets.Load(),
		Invalidations: r.invalidations.Load(),
	}
}

func (r *ResponseCache) warn(msg, key string, err error) {
	if r.logger == nil {
		return
	}

	r.logger.Warn(msg, map[string]interface{}{
		"key":   key,
		"error": err.Error(),
	})
}

func isCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheKeyNotFound) ||
		errors.Is(err, ErrCacheEntryExpired) ||
		errors.Is(err, ErrCacheDisabled) ||
		errors.Is(err, ErrKeyNotFoundInAnyCache)
}
