// Package catalog provides the read-only Asset Catalog.
//
// A catalog is loaded once from a properties file that maps asset ids to
// their declared footprint, scale, size group and default facing. After
// loading it is never mutated, so one *Catalog can be shared by any number
// of goroutines or shards.
//
// # Properties File
//
// The loader accepts JSON, YAML or TOML; the format is chosen by extension:
//
//	{
//	  "shoe": {"file": "shoe.blend", "group": "small", "scale": 1.0,
//	           "footprint": {"width": 0.3, "depth": 0.12, "height": 0.1},
//	           "default_orientation": "front"},
//	  "puma": {"file": "puma.blend", "group": "large",
//	           "footprint": {"radius": 0.9, "height": 0.8}}
//	}
package catalog

import (
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Size groups declared in the properties file.
const (
	GroupSmall  = "small"
	GroupMedium = "medium"
	GroupLarge  = "large"
)

// Footprint is an asset's approximate extent, used only for overlap math.
type Footprint struct {
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Depth  float64 `json:"depth,omitempty" yaml:"depth,omitempty" toml:"depth,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty" toml:"radius,omitempty"`
}

// HorizontalRadius returns the declared radius, or half the diagonal of the
// width x depth rectangle when no radius is given.
func (f Footprint) HorizontalRadius() float64 {
	if f.Radius > 0 {
		return f.Radius
	}
	return math.Hypot(f.Width, f.Depth) / 2
}

// Asset describes one object that can be placed in a scene.
type Asset struct {
	ID                 string
	File               string
	Group              string
	Scale              float64
	Footprint          Footprint
	DefaultOrientation string // World direction faced at yaw 0; empty if the asset has no front
}

// Oriented reports whether the asset has an intrinsic front.
func (a Asset) Oriented() bool { return a.DefaultOrientation != "" }

// Facing returns the world direction the asset faces after a yaw rotation
// in degrees. Rotations snap to the nearest quarter turn. The second result
// is false for assets without a default orientation.
func (a Asset) Facing(yaw float64) (scene.Relation, bool) {
	if !a.Oriented() {
		return 0, false
	}
	base, err := scene.ParseRelation(a.DefaultOrientation)
	if err != nil {
		return 0, false
	}
	return base.Turn(int(math.Round(yaw / 90))), true
}

// Catalog is an immutable id -> Asset mapping.
type Catalog struct {
	assets map[string]Asset
	ids    []string
}

// New builds a catalog from assets, validating each one.
func New(assets ...Asset) (*Catalog, error) {
	c := &Catalog{assets: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		if err := validate(&a); err != nil {
			return nil, err
		}
		if _, dup := c.assets[a.ID]; dup {
			return nil, errors.New(errors.ErrCodeCatalog, "duplicate asset id %q", a.ID)
		}
		c.assets[a.ID] = a
	}
	c.ids = slices.Sorted(maps.Keys(c.assets))
	return c, nil
}

// Resolve returns the asset with the given id.
func (c *Catalog) Resolve(id string) (Asset, error) {
	a, ok := c.assets[id]
	if !ok {
		return Asset{}, errors.New(errors.ErrCodeUnknownAsset, "unknown asset %q", id)
	}
	return a, nil
}

// Require checks that every referenced id has a catalog entry.
// All missing ids are reported in a single error.
func (c *Catalog) Require(ids []string) error {
	var missing []string
	for _, id := range ids {
		if _, ok := c.assets[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeCatalog, "no catalog entry for %s", strings.Join(missing, ", "))
	}
	return nil
}

// IDs returns all asset ids in lexicographic order.
func (c *Catalog) IDs() []string { return slices.Clone(c.ids) }

// Len returns the number of assets.
func (c *Catalog) Len() int { return len(c.ids) }

// Assets returns all assets ordered by id.
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.assets[id]
	}
	return out
}

// PairScale returns the extra scale applied to both objects of a pair so
// that small props stay visible next to each other.
func PairScale(a, b Asset) float64 {
	switch {
	case a.Group == GroupSmall && b.Group == GroupSmall:
		return 3
	case a.Group == GroupSmall && b.Group == GroupMedium,
		a.Group == GroupMedium && b.Group == GroupSmall:
		return 1.8
	case a.Group == GroupMedium && b.Group == GroupMedium:
		return 1.3
	}
	return 1
}

func validate(a *Asset) error {
	if err := errors.ValidateAssetID(a.ID); err != nil {
		return err
	}
	if a.Scale == 0 {
		a.Scale = 1
	}
	if a.Scale < 0 || math.IsNaN(a.Scale) || math.IsInf(a.Scale, 0) {
		return errors.New(errors.ErrCodeCatalog, "asset %q: scale must be positive, got %v", a.ID, a.Scale)
	}
	f := a.Footprint
	for _, v := range []float64{f.Width, f.Depth, f.Height, f.Radius} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeCatalog, "asset %q: malformed footprint %+v", a.ID, f)
		}
	}
	if f.HorizontalRadius() == 0 {
		return errors.New(errors.ErrCodeCatalog, "asset %q: footprint needs a radius or width/depth", a.ID)
	}
	switch a.Group {
	case "", GroupSmall, GroupMedium, GroupLarge:
	default:
		return errors.New(errors.ErrCodeCatalog, "asset %q: unknown size group %q", a.ID, a.Group)
	}
	if a.DefaultOrientation != "" {
		r, err := scene.ParseRelation(a.DefaultOrientation)
		if err != nil {
			return errors.Wrap(errors.ErrCodeCatalog, err, "asset %q", a.ID)
		}
		a.DefaultOrientation = r.String()
	}
	return nil
}
