// Package cache stores augmented results so unchanged inputs are not
// recomputed.
//
// Entries are content-addressed: a [Keyer] derives the key from the hash of
// the source image bytes, the hash of the configuration and the per-image
// seed. Backends are interchangeable behind [Cache]:
//
//   - [FileCache] keeps entries under a local directory (the CLI default)
//   - [RedisCache] shares entries between machines
//   - [NullCache] disables caching
//
// Use [Open] to pick a backend from a single location string.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// TTLResult is how long an augmented result stays cached.
const TTLResult = 30 * 24 * time.Hour

// DefaultDir returns the per-user cache directory for boxaug.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "boxaug"), nil
}

// Open returns the cache described by location:
//
//   - "" selects a [FileCache] in [DefaultDir]
//   - "none" or "off" selects a [NullCache]
//   - a redis:// or rediss:// URL selects a [RedisCache]
//   - anything else is used as a [FileCache] directory
func Open(ctx context.Context, location string) (Cache, error) {
	switch {
	case location == "none" || location == "off":
		return NewNullCache(), nil
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		return NewRedisCache(ctx, location)
	case location == "":
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		return NewFileCache(dir)
	}
	return NewFileCache(location)
}
