// Package cache stores short-lived computed values such as dashboard
// statistics. Three drivers exist: redis, an in-process map and a no-op.
//
// # Usage
//
//	c, err := cache.New(cfg.Cache, log)
//	err = cache.SetJSON(ctx, c, "stats:user:1:2024-05-01", stats, cfg.Cache.TTL)
//	ok, err := cache.GetJSON(ctx, c, "stats:user:1:2024-05-01", &stats)
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/logger"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix and returns how many went.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes cache usage since the process started.
type Stats struct {
	Driver string `json:"driver"`
	Keys   int64  `json:"keys"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

// HitRate is hits / (hits + misses) as a percentage, 0 when unused.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New builds the cache selected by cfg.Driver.
func New(cfg config.Cache, log *logger.Logger) (Cache, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(cfg, log)
	case DriverNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %q", cfg.Driver)
	}
}

// GetJSON decodes a cached JSON value into dst. An undecodable entry counts as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error                  { return nil }
func (Nop) DeletePrefix(context.Context, string) (int, error)        { return 0, nil }
func (Nop) Stats(context.Context) (Stats, error)                     { return Stats{Driver: DriverNone}, nil }
func (Nop) Close() error                                             { return nil }
