package cache

import (
	"context"
	"time"
)

// NullCache remembers nothing, so every batch renders all of its
// combinations. It backs --no-cache and the "none" backend.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

// Clear implements Clearer; there is never anything to forget.
func (NullCache) Clear(context.Context) error { return nil }

func (NullCache) Close() error { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
