// Package config loads the demo's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lrucache/internal/cache"
)

// ErrInvalid wraps every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the on-disk configuration. Durations use Go syntax ("250ms", "1m").
type Config struct {
	Capacity        int           `yaml:"capacity"`
	DefaultTTL      time.Duration `yaml:"default_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	Redis           Redis         `yaml:"redis"`
}

// Redis configures the optional remote tier. An empty Addr disables it.
type Redis struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Capacity:        2,
		CleanupInterval: 100 * time.Millisecond,
		Redis: Redis{
			Prefix: "lrucache:",
			TTL:    time.Minute,
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a non-positive capacity and any negative duration.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalid, c.Capacity)
	case c.DefaultTTL < 0:
		return fmt.Errorf("%w: default_ttl must not be negative", ErrInvalid)
	case c.CleanupInterval < 0:
		return fmt.Errorf("%w: cleanup_interval must not be negative", ErrInvalid)
	case c.Redis.TTL < 0:
		return fmt.Errorf("%w: redis.ttl must not be negative", ErrInvalid)
	}
	return nil
}

// Cache converts the file settings to a cache.Config.
func (c Config) Cache() cache.Config {
	return cache.Config{
		MaxEntries:      c.Capacity,
		DefaultTTL:      c.DefaultTTL,
		CleanupInterval: c.CleanupInterval,
	}
}
