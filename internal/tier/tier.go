// Package tier puts the local LRU cache in front of a shared remote store.
//
// Reads go local first and fall back to the remote; remote hits are promoted
// into the local cache. Writes go to the remote first and then locally, so a
// failed remote write never leaves a value that only this process can see.
package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lrucache/internal/cache"
)

// Store is a remote key/value tier.
type Store interface {
	// Get returns ok=false and a nil error on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Tiered is a two-level cache: a process-local LRU and a remote Store.
type Tiered struct {
	local  *cache.Cache[string, []byte]
	remote Store
	ttl    time.Duration
}

// New returns a Tiered cache. ttl applies to both tiers; <= 0 means the local
// cache default and no expiry remotely.
func New(local *cache.Cache[string, []byte], remote Store, ttl time.Duration) *Tiered {
	return &Tiered{local: local, remote: remote, ttl: ttl}
}

// Get returns a copy of the value for key.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.local.Get(key); ok {
		return cloneBytes(v), true, nil
	}

	v, ok, err := t.remote.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("remote get %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	// A closed local tier only loses the promotion; the remote hit stands.
	if err := t.local.Set(key, cloneBytes(v), t.ttl); err != nil && !errors.Is(err, cache.ErrClosed) {
		return nil, false, fmt.Errorf("local set %q: %w", key, err)
	}
	return v, true, nil
}

// Set writes key through to the remote and then to the local cache.
func (t *Tiered) Set(ctx context.Context, key string, value []byte) error {
	if err := t.remote.Set(ctx, key, value, t.ttl); err != nil {
		return fmt.Errorf("remote set %q: %w", key, err)
	}
	if err := t.local.Set(key, cloneBytes(value), t.ttl); err != nil {
		return fmt.Errorf("local set %q: %w", key, err)
	}
	return nil
}

// Del removes key from both tiers.
func (t *Tiered) Del(ctx context.Context, key string) error {
	if err := t.remote.Del(ctx, key); err != nil {
		return fmt.Errorf("remote del %q: %w", key, err)
	}
	if err := t.local.Delete(key); err != nil {
		return fmt.Errorf("local del %q: %w", key, err)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
