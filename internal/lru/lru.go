package lru

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCapacity is returned when a cache is built or resized with a
// capacity that is not a positive integer.
var ErrInvalidCapacity = errors.New("lru: capacity must be positive")

// Anchor slots. They never hold data and never count toward capacity.
const (
	head int32 = 0
	tail int32 = 1

	anchors = 2

	maxCapacity = math.MaxInt32 - anchors
)

// slot is one arena cell. prev points toward head (more recent),
// next toward tail (less recent).
type slot[K comparable, V any] struct {
	key   K
	value V
	prev  int32
	next  int32
}

// Cache is a fixed-capacity LRU cache.
//
// The zero value is not usable; construct with New.
type Cache[K comparable, V any] struct {
	capacity int
	slots    []slot[K, V]
	index    map[K]int32
	free     []int32

	onEvict func(key K, value V)
}

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*Cache[K, V])

// WithOnEvict registers fn to be called for every entry dropped to make room,
// either by Put on a full cache or by shrinking with Resize.
// fn runs synchronously inside the call that caused the eviction.
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New returns an empty cache holding at most capacity entries.
//
// A capacity <= 0 is rejected with ErrInvalidCapacity rather than clamped.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*Cache[K, V], error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		capacity: capacity,
		index:    make(map[K]int32),
	}
	c.reset()

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func checkCapacity(n int) error {
	if n <= 0 || n > maxCapacity {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, n)
	}
	return nil
}

// reset drops every entry and links the two anchors to each other.
func (c *Cache[K, V]) reset() {
	c.slots = make([]slot[K, V], anchors)
	c.slots[head].next = tail
	c.slots[tail].prev = head
	c.free = c.free[:0]
	clear(c.index)
}

// Get returns the value for key and marks it most recently used.
// A miss returns the zero value and false and leaves the cache untouched.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	i, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(i)
	return c.slots[i].value, true
}

// Put stores value under key and marks it most recently used.
//
// Overwriting an existing key never changes Len. Inserting a new key into a
// full cache evicts the least recently used entry first; the return value
// reports whether that happened.
func (c *Cache[K, V]) Put(key K, value V) (evicted bool) {
	if i, ok := c.index[key]; ok {
		c.slots[i].value = value
		c.moveToFront(i)
		return false
	}

	if len(c.index) >= c.capacity {
		c.evictOldest()
		evicted = true
	}

	i := c.alloc()
	c.slots[i].key = key
	c.slots[i].value = value
	c.pushFront(i)
	c.index[key] = i
	return evicted
}

// Peek returns the value for key without updating its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	i, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return c.slots[i].value, true
}

// Contains reports whether key is present without updating its recency.
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.index[key]
	return ok
}

// Remove deletes key. It reports whether the key was present.
func (c *Cache[K, V]) Remove(key K) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.release(i)
	return true
}

// GetOldest returns the least recently used entry without touching it.
func (c *Cache[K, V]) GetOldest() (K, V, bool) {
	i := c.slots[tail].prev
	if i == head {
		var (
			k K
			v V
		)
		return k, v, false
	}
	return c.slots[i].key, c.slots[i].value, true
}

// RemoveOldest removes and returns the least recently used entry.
func (c *Cache[K, V]) RemoveOldest() (K, V, bool) {
	k, v, ok := c.GetOldest()
	if ok {
		c.release(c.slots[tail].prev)
	}
	return k, v, ok
}

// Keys returns the keys ordered from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	out := make([]K, 0, len(c.index))
	for i := c.slots[head].next; i != tail; i = c.slots[i].next {
		out = append(out, c.slots[i].key)
	}
	return out
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int { return len(c.index) }

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// Purge removes every entry. The eviction callback is not invoked.
func (c *Cache[K, V]) Purge() { c.reset() }

// Resize changes the capacity, evicting least recently used entries until
// the cache fits. It returns the number of evicted entries.
//
// Shrinking compacts the arena once more than half of it is free, so a
// cache that was once large does not keep its peak footprint.
func (c *Cache[K, V]) Resize(capacity int) (int, error) {
	if err := checkCapacity(capacity); err != nil {
		return 0, err
	}
	c.capacity = capacity

	evicted := 0
	for len(c.index) > c.capacity {
		c.evictOldest()
		evicted++
	}
	if len(c.free) > len(c.slots)/2 {
		c.compact()
	}
	return evicted, nil
}

// compact rebuilds the arena with only the anchors and live entries,
// preserving recency order, and empties the free list.
func (c *Cache[K, V]) compact() {
	old := c.slots
	c.slots = make([]slot[K, V], anchors, anchors+len(c.index))
	c.slots[head].next = tail
	c.slots[tail].prev = head
	c.free = nil

	// Walk LRU to MRU so each pushFront leaves the order intact.
	for i := old[tail].prev; i != head; i = old[i].prev {
		j := int32(len(c.slots))
		c.slots = append(c.slots, slot[K, V]{key: old[i].key, value: old[i].value})
		c.pushFront(j)
		c.index[old[i].key] = j
	}
}

// Prune removes every entry for which fn returns true, walking from least to
// most recently used, and returns how many were removed. fn must not mutate
// the cache. The eviction callback is not invoked.
func (c *Cache[K, V]) Prune(fn func(key K, value V) bool) int {
	removed := 0
	for i := c.slots[tail].prev; i != head; {
		prev := c.slots[i].prev
		if fn(c.slots[i].key, c.slots[i].value) {
			c.release(i)
			removed++
		}
		i = prev
	}
	return removed
}

func (c *Cache[K, V]) evictOldest() {
	i := c.slots[tail].prev
	if i == head {
		return
	}
	key, value := c.slots[i].key, c.slots[i].value
	c.release(i)
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

// alloc hands out a detached slot, reusing freed ones first.
func (c *Cache[K, V]) alloc() int32 {
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		return i
	}
	c.slots = append(c.slots, slot[K, V]{})
	return int32(len(c.slots) - 1)
}

// release unlinks slot i, drops it from the index and zeroes it so the
// arena keeps no references to evicted keys or values.
func (c *Cache[K, V]) release(i int32) {
	c.unlink(i)
	delete(c.index, c.slots[i].key)
	c.slots[i] = slot[K, V]{}
	c.free = append(c.free, i)
}

func (c *Cache[K, V]) unlink(i int32) {
	p, n := c.slots[i].prev, c.slots[i].next
	c.slots[p].next = n
	c.slots[n].prev = p
}

func (c *Cache[K, V]) pushFront(i int32) {
	first := c.slots[head].next
	c.slots[i].prev = head
	c.slots[i].next = first
	c.slots[first].prev = i
	c.slots[head].next = i
}

func (c *Cache[K, V]) moveToFront(i int32) {
	if c.slots[head].next == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}
