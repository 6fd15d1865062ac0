package cache

import "github.com/matzehuels/spatialgen/pkg/scene"

// ScopedKeyer wraps a Keyer with a prefix, so several datasets can share
// one Redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "objaverse-v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DoneKey generates a prefixed completion key.
func (k *ScopedKeyer) DoneKey(settingsHash string, c scene.Combination) string {
	return k.prefix + k.inner.DoneKey(settingsHash, c)
}
