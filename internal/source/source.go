// Package source loads the production dataset (dates plus one series per
// entity) from a published CSV sheet or a local file.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/cache"
	"github.com/soltixdb/orelens/internal/config"
	"github.com/soltixdb/orelens/internal/logging"
)

// ErrUnavailable wraps failures to reach or read the underlying data
var ErrUnavailable = errors.New("data source unavailable")

// ErrMalformed wraps data that was read but cannot be interpreted
var ErrMalformed = errors.New("malformed source data")

// Source provides the current dataset
type Source interface {
	// Fetch returns dates and series in column order
	Fetch(ctx context.Context) (*analytics.Frame, error)

	// ID identifies the underlying data, used as the cache key
	ID() string
}

// New builds the configured source, wrapped in a cache when one is given
func New(cfg config.SourceConfig, c cache.Cache, cacheCfg config.CacheConfig, logger *logging.Logger) (Source, error) {
	var src Source
	switch cfg.Type {
	case config.SourceCSVURL:
		src = NewURLSource(cfg.URL, cfg.DateColumn, cfg.Timeout, logger)
	case config.SourceCSVFile:
		src = NewFileSource(cfg.Path, cfg.DateColumn, logger)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}

	if c == nil {
		return src, nil
	}
	return NewCachedSource(src, c, cacheCfg.TTL, cacheCfg.Compress, logger), nil
}
