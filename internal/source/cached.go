package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/cache"
	"github.com/soltixdb/orelens/internal/logging"
)

// CachedSource serves frames from a cache and falls back to the wrapped
// source on a miss. Cache failures are logged and never fail a fetch.
type CachedSource struct {
	src      Source
	cache    cache.Cache
	ttl      time.Duration
	compress bool
	logger   *logging.Logger
}

// NewCachedSource wraps src
func NewCachedSource(src Source, c cache.Cache, ttl time.Duration, compress bool, logger *logging.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &CachedSource{src: src, cache: c, ttl: ttl, compress: compress, logger: logger}
}

// ID implements Source
func (s *CachedSource) ID() string {
	return s.src.ID()
}

// key derives the cache key from the wrapped source identity
func (s *CachedSource) key() string {
	sum := sha256.Sum256([]byte(s.src.ID()))
	return "frame:" + hex.EncodeToString(sum[:])
}

// Fetch implements Source
func (s *CachedSource) Fetch(ctx context.Context) (*analytics.Frame, error) {
	key := s.key()

	payload, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("Cache read failed", "key", key, "error", err)
	case ok:
		var frame analytics.Frame
		if err := cache.Decode(payload, &frame); err == nil {
			return &frame, nil
		}
		s.logger.Warn("Discarding unreadable cache entry", "key", key)
		_ = s.cache.Delete(ctx, key)
	}

	frame, err := s.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := cache.Encode(frame, s.compress); err != nil {
		s.logger.Warn("Cache encode failed", "key", key, "error", err)
	} else if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", "key", key, "error", err)
	}

	return frame, nil
}

// Invalidate drops the cached frame so the next Fetch reads the source
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key())
}
