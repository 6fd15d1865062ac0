// Package placement computes non-overlapping transforms for two objects.
//
// Object1 is anchored at the origin. Object2 is offset along the axis of
// the requested relation by the requested gap plus both footprint radii,
// so the visible gap between the objects stays the same whatever their
// size:
//
//	separation = max(distance, MinGap) + r1 + r2
//
// Using distance as the centre-to-centre separation would make large
// objects intersect and small objects drift apart.
//
// [Place] is a pure function and safe for concurrent use.
package placement

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// MinGap is the smallest gap in metres kept between the two footprints.
const MinGap = 0.05

// tolerance absorbs floating-point error in the overlap check.
const tolerance = 1e-9

// Options tunes the calculator.
type Options struct {
	// PairScale applies [catalog.PairScale] on top of each asset's scale.
	PairScale bool
}

// Option configures Place.
type Option func(*Options)

// WithPairScale enables or disables the size-group pair scale factor.
func WithPairScale(enabled bool) Option {
	return func(o *Options) { o.PairScale = enabled }
}

// Place computes both placements for a relation.
// The distance is the requested gap between the footprints in metres.
func Place(a1, a2 catalog.Asset, rel scene.Relation, distance, rot1, rot2 float64, opts ...Option) (scene.Placement, scene.Placement, error) {
	o := Options{PairScale: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !rel.Valid() {
		return scene.Placement{}, scene.Placement{}, errors.New(errors.ErrCodeInvalidConfig, "invalid relation %d", int(rel))
	}
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return scene.Placement{}, scene.Placement{}, errors.New(errors.ErrCodeInvalidConfig, "distance must be a non-negative number, got %v", distance)
	}

	pair := 1.0
	if o.PairScale {
		pair = catalog.PairScale(a1, a2)
	}

	p1 := anchor(a1, a1.Scale*pair, rot1)
	p2 := anchor(a2, a2.Scale*pair, rot2)

	separation := math.Max(distance, MinGap) + p1.Radius + p2.Radius
	offset := rel.Axis().Mul(separation)
	p2.Position = r3.Vector{X: offset.X, Y: offset.Y, Z: p2.Position.Z}

	if err := Check(p1, p2, distance); err != nil {
		return scene.Placement{}, scene.Placement{}, err
	}
	return p1, p2, nil
}

// anchor places an asset at the origin resting on the ground.
func anchor(a catalog.Asset, scale, yaw float64) scene.Placement {
	return scene.Placement{
		AssetID:  a.ID,
		Position: r3.Vector{Z: a.Footprint.Height * scale / 2},
		Yaw:      scene.NormalizeYaw(yaw),
		Scale:    scale,
		Radius:   a.Footprint.HorizontalRadius() * scale,
	}
}

// Check reports an OVERLAP error when the horizontal distance between the
// two centres is below r1 + r2 + max(distance, MinGap). It is symmetric in
// p1 and p2.
func Check(p1, p2 scene.Placement, distance float64) error {
	for _, v := range []float64{p1.Radius, p2.Radius, distance,
		p1.Position.X, p1.Position.Y, p2.Position.X, p2.Position.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeOverlap, "%s/%s: non-finite geometry", p1.AssetID, p2.AssetID)
		}
	}
	if p1.Radius < 0 || p2.Radius < 0 {
		return errors.New(errors.ErrCodeOverlap, "%s/%s: negative footprint radius", p1.AssetID, p2.AssetID)
	}

	got := Separation(p1, p2)
	need := p1.Radius + p2.Radius + math.Max(distance, MinGap)
	if got+tolerance < need {
		return errors.New(errors.ErrCodeOverlap, "%s/%s: separation %.4fm below required %.4fm",
			p1.AssetID, p2.AssetID, got, need)
	}
	return nil
}

// Separation returns the horizontal centre-to-centre distance.
func Separation(p1, p2 scene.Placement) float64 {
	return p1.Horizontal().Distance(p2.Horizontal())
}
