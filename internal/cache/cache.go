// Package cache stores fetched datasets so repeated analyses do not re-download
// the source sheet.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/orelens/internal/config"
)

// Cache is a byte-oriented key/value store with per-entry expiry
type Cache interface {
	// Get returns the value and true on a hit; expired entries are misses
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}

// Type represents the cache backend
type Type string

const (
	TypeMemory Type = "memory"
	TypeRedis  Type = "redis"
	TypeNone   Type = "none"
)

// New creates the cache described by cfg. It returns (nil, nil) when caching
// is disabled.
func New(cfg config.CacheConfig) (Cache, error) {
	switch Type(strings.ToLower(cfg.Type)) {
	case TypeMemory:
		return NewMemoryCache(cfg.MaxEntries), nil
	case TypeRedis:
		c, err := NewRedisCache(RedisConfig{URL: cfg.URL, KeyPrefix: cfg.KeyPrefix})
		if err != nil {
			return nil, err
		}
		return c, nil
	case TypeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
