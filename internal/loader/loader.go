// Package loader implements cache-aside reads on top of package cache.
//
// Concurrent misses for the same key are collapsed into a single call to the
// backing LoadFunc with golang.org/x/sync/singleflight.
package loader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"lrucache/internal/cache"
)

// LoadFunc fetches the authoritative value for key on a cache miss.
type LoadFunc[V any] func(ctx context.Context, key string) (V, error)

// Loader serves reads from a cache and fills misses from a LoadFunc.
type Loader[V any] struct {
	cache *cache.Cache[string, V]
	load  LoadFunc[V]
	ttl   time.Duration
	group singleflight.Group
}

// New returns a Loader that stores loaded values in c with the given ttl.
// A ttl <= 0 uses the cache's default.
func New[V any](c *cache.Cache[string, V], load LoadFunc[V], ttl time.Duration) *Loader[V] {
	return &Loader[V]{cache: c, load: load, ttl: ttl}
}

// Get returns the cached value for key, loading it on a miss.
//
// Load errors are returned to every waiting caller and are not cached.
// If ctx ends first Get returns ctx.Err(); the shared load keeps running
// for the other callers and still fills the cache.
func (l *Loader[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	// Detach from this caller's cancellation: the load is shared.
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		// Peek, not Get: the miss above is already counted.
		if v, ok := l.cache.Peek(key); ok {
			return v, nil
		}
		v, err := l.load(loadCtx, key)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(key, v, l.ttl); err != nil {
			return nil, err
		}
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, fmt.Errorf("load %q: %w", key, res.Err)
		}
		// Comma-ok: a nil interface V comes back as an untyped nil.
		v, _ := res.Val.(V)
		return v, nil
	}
}

// Forget drops an in-flight load for key so the next Get starts a new one.
func (l *Loader[V]) Forget(key string) {
	l.group.Forget(key)
}
