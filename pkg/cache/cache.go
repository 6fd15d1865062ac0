// Package cache records which combinations of a batch are complete.
//
// A batch run writes one small entry per finished image so that an
// interrupted run, or a shard restarted on another machine, can skip
// everything already on disk. Keys are produced by a [Keyer] from the
// combination and a hash of the render settings, so changing the distance,
// resolution or engine invalidates earlier entries without touching them.
//
// Three backends are provided:
//
//   - [FileCache]: one file per key under a local directory (default)
//   - [RedisCache]: shared entries for shards running on several hosts
//   - [NullCache]: never remembers anything (used with --refresh)
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key; missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// GetJSON decodes the value at key into v. It returns ErrCacheMiss when
// the key is absent or the stored value no longer decodes.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || json.Unmarshal(data, v) != nil {
		return ErrCacheMiss
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
