package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"lrucache/internal/cache"
	"lrucache/internal/config"
	"lrucache/internal/loader"
	"lrucache/internal/lru"
	"lrucache/internal/tier"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults when empty)")
	flag.Parse()

	// Signal-aware context is the root of ownership for long-lived background work.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Println("lrucache demo starting")
	log.Printf("config: capacity=%d defaultTTL=%s cleanupEvery=%s", cfg.Capacity, cfg.DefaultTTL, cfg.CleanupInterval)

	if err := runLRU(); err != nil {
		log.Fatalf("lru demo: %v", err)
	}

	c, err := cache.New[string, []byte](cfg.Cache())
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer func() {
		// Close is idempotent; safe to call in defer.
		if err := c.Close(); err != nil {
			log.Printf("cache close: %v", err)
		}
	}()

	if err := runTTL(ctx, c); err != nil {
		log.Printf("ttl demo: %v", err)
		return
	}
	if err := runLoader(ctx, c); err != nil {
		log.Printf("loader demo: %v", err)
		return
	}
	if cfg.Redis.Addr != "" {
		if err := runTiered(ctx, c, cfg.Redis); err != nil {
			log.Printf("redis tier demo: %v", err)
			return
		}
	}

	st := c.Stats()
	log.Printf("stats: hits=%d misses=%d evictions=%d expirations=%d", st.Hits, st.Misses, st.Evictions, st.Expirations)
	fmt.Println("Done.")
}

// runLRU replays the classic capacity-2 and capacity-1 sequences on the bare LRU.
func runLRU() error {
	two, err := lru.New(2, lru.WithOnEvict(func(k, _ int) {
		log.Printf("evicted %d (least recently used)", k)
	}))
	if err != nil {
		return err
	}
	two.Put(1, 1)
	two.Put(2, 2)
	v, _ := two.Get(1)
	log.Printf("get(1) = %d (touches 1 -> MRU)", v)
	two.Put(3, 3)
	if _, ok := two.Get(2); !ok {
		log.Println("get(2): missing")
	}
	v, _ = two.Get(3)
	log.Printf("get(3) = %d; keys (MRU->LRU): %v", v, two.Keys())

	one, err := lru.New[int, int](1)
	if err != nil {
		return err
	}
	one.Put(1, 1)
	one.Put(2, 2)
	_, ok := one.Get(1)
	v, _ = one.Get(2)
	log.Printf("capacity 1: get(1) present=%t, get(2) = %d", ok, v)

	if _, err := lru.New[int, int](0); err != nil {
		log.Printf("capacity 0 rejected: %v", err)
	}
	return nil
}

// runTTL shows background cleanup removing a key nobody reads.
func runTTL(ctx context.Context, c *cache.Cache[string, []byte]) error {
	if err := c.Set("ttl", []byte("short"), 200*time.Millisecond); err != nil {
		return err
	}
	log.Printf("keys after ttl set (MRU->LRU): %v", c.Keys())

	wait := time.NewTimer(500 * time.Millisecond)
	defer wait.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wait.C:
	}

	log.Printf("keys after ttl + cleanup (MRU->LRU): %v", c.Keys())
	return nil
}

// runLoader fires concurrent misses for one key and shows a single backend fetch.
func runLoader(ctx context.Context, c *cache.Cache[string, []byte]) error {
	fetches := 0
	l := loader.New(c, func(ctx context.Context, key string) ([]byte, error) {
		fetches++
		select {
		case <-time.After(100 * time.Millisecond):
			return []byte("value-for-" + key), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, time.Minute)

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := l.Get(ctx, "user:42")
			errs <- err
		}()
	}
	for i := 0; i < 5; i++ {
		if err := <-errs; err != nil {
			return err
		}
	}
	log.Printf("5 concurrent loads, backend fetches: %d", fetches)
	return nil
}

// runTiered writes through to redis and reads back via the local tier.
func runTiered(ctx context.Context, c *cache.Cache[string, []byte], rc config.Redis) error {
	client := redis.NewClient(&redis.Options{Addr: rc.Addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping %s: %w", rc.Addr, err)
	}

	tc := tier.New(c, tier.NewRedisStore(client, rc.Prefix), rc.TTL)
	if err := tc.Set(ctx, "greeting", []byte("hello")); err != nil {
		return err
	}
	if err := c.Delete("greeting"); err != nil {
		return err
	}
	v, ok, err := tc.Get(ctx, "greeting")
	if err != nil {
		return err
	}
	log.Printf("tiered get after local delete: %q found=%t (served by redis)", v, ok)
	return nil
}
