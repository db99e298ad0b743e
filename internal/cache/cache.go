package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lrucache/internal/lru"
)

// Config controls cache capacity, expiry and maintenance behavior.
//
//   - MaxEntries must be positive; New rejects anything else
//   - DefaultTTL applies when Set is called with ttl <= 0; zero means "never expires"
//   - CleanupInterval <= 0 disables background cleanup (lazy expiration still works)
//
// Background cleanup exists to prevent memory growth when keys are written once and never read again.
// Lazy expiration alone can leave dead entries in memory indefinitely.
type Config struct {
	MaxEntries      int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64 // dropped by LRU capacity pressure
	Expirations uint64 // dropped because their TTL passed
}

// Cache is a concurrency-safe in-memory key–value cache with TTL and LRU eviction.
//
// Every call holds the mutex for its whole duration, so a reader never
// observes a half-applied mutation of the index or the recency list.
//
// Ownership model:
// Cache owns its internal goroutines. Call Close to stop them.
type Cache[K comparable, V any] struct {
	mu sync.RWMutex

	lru        *lru.Cache[K, entry[V]]
	defaultTTL time.Duration
	stats      Stats

	// Goroutine ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupEvery time.Duration
	closed       bool
}

// entry is the value stored in the LRU.
//
// hasExpiry=false means "never expires".
type entry[V any] struct {
	value     V
	expiresAt time.Time
	hasExpiry bool
}

func (e entry[V]) expired(now time.Time) bool {
	return e.hasExpiry && !e.expiresAt.After(now)
}

var ErrClosed = errors.New("cache is closed")

// New constructs a cache and starts background maintenance (if enabled).
func New[K comparable, V any](cfg Config) (*Cache[K, V], error) {
	c := &Cache[K, V]{
		defaultTTL:   cfg.DefaultTTL,
		cleanupEvery: cfg.CleanupInterval,
	}

	l, err := lru.New(cfg.MaxEntries, lru.WithOnEvict(func(K, entry[V]) {
		// Runs inside Set, under c.mu.
		c.stats.Evictions++
	}))
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	c.lru = l
	c.ctx, c.cancel = context.WithCancel(context.Background())

	if c.cleanupEvery > 0 {
		c.wg.Add(1)
		go c.expiryLoop()
	}

	return c, nil
}

// Close stops background goroutines and prevents further mutation.
//
// Close is safe to call multiple times.
func (c *Cache[K, V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	// Cancel outside the lock so the expiry loop can finish its current tick.
	cancel()
	c.wg.Wait()
	return nil
}

// Set writes/overwrites a key and marks it most recently used.
//
// ttl <= 0 falls back to Config.DefaultTTL.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	now := time.Now()
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	e := entry[V]{value: value, hasExpiry: ttl > 0}
	if e.hasExpiry {
		e.expiresAt = now.Add(ttl)
	}

	// Reclaim expired entries before letting the LRU evict a live one.
	if !c.lru.Contains(key) && c.lru.Len() >= c.lru.Cap() {
		c.deleteExpiredLocked(now)
	}

	c.lru.Put(key, e)
	return nil
}

// Get reads a key and marks it most recently used.
//
// It performs lazy TTL expiration: expired keys are removed on access.
// Get takes the write lock because a hit reorders the recency list.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Peek(key)
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if e.expired(now) {
		c.lru.Remove(key)
		c.stats.Expirations++
		c.stats.Misses++
		return zero, false
	}

	c.lru.Get(key)
	c.stats.Hits++
	return e.value, true
}

// Peek reads a key without touching its recency or the counters.
// Expired entries are reported as missing but left for cleanup.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.lru.Peek(key)
	if !ok || e.expired(now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes a key if present.
func (c *Cache[K, V]) Delete(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.lru.Remove(key)
	return nil
}

// Len returns the number of currently stored entries.
//
// Note: Len includes entries that have expired but haven't been cleaned up yet.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Keys returns keys in MRU -> LRU order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Keys()
}

// Stats returns a snapshot of the counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// deleteExpiredLocked removes all expired keys.
//
// This is O(n). A min-heap or timing wheel would avoid the scan at the cost
// of another structure to keep in sync with the LRU.
func (c *Cache[K, V]) deleteExpiredLocked(now time.Time) int {
	removed := c.lru.Prune(func(_ K, e entry[V]) bool {
		return e.expired(now)
	})
	c.stats.Expirations += uint64(removed)
	return removed
}
