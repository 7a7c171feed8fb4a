// Package cache provides the keyed byte cache used to memoise summaries and
// translations.
package cache

import (
	"context"
	"time"

	"github.com/localrivet/readaloud/internal/util"
)

const (
	// DefaultCapacity is the default number of entries held by a MemoryCache.
	DefaultCapacity = 1000

	// DefaultTTL is the default lifetime of a cached entry.
	DefaultTTL = 24 * time.Hour
)

// Cache stores opaque values under string keys.
type Cache interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key derives a stable cache key from a namespace and its parts.
func Key(namespace string, parts ...string) string {
	var buf []byte
	for _, part := range parts {
		buf = append(buf, part...)
		buf = append(buf, 0)
	}
	return namespace + ":" + util.HashBytes(buf)
}
