package placement

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

var (
	shoe = catalog.Asset{ID: "shoe", Group: catalog.GroupSmall, Scale: 1,
		Footprint: catalog.Footprint{Width: 0.3, Depth: 0.12, Height: 0.1}}
	puma = catalog.Asset{ID: "puma", Group: catalog.GroupLarge, Scale: 1,
		Footprint: catalog.Footprint{Radius: 0.9, Height: 0.8}}
	mug = catalog.Asset{ID: "mug", Group: catalog.GroupSmall, Scale: 0.5,
		Footprint: catalog.Footprint{Radius: 0.05, Height: 0.1}}
	bus = catalog.Asset{ID: "bus", Scale: 2,
		Footprint: catalog.Footprint{Width: 2.5, Depth: 11, Height: 3}}
)

func TestPlaceSeparation(t *testing.T) {
	assets := []catalog.Asset{shoe, puma, mug, bus}
	distances := []float64{0, 0.01, 0.5, 3, 10}

	for _, a1 := range assets {
		for _, a2 := range assets {
			if a1.ID == a2.ID {
				continue
			}
			for _, rel := range scene.Relations {
				for _, d := range distances {
					p1, p2, err := Place(a1, a2, rel, d, 0, 0)
					if err != nil {
						t.Fatalf("Place(%s, %s, %v, %v): %v", a1.ID, a2.ID, rel, d, err)
					}
					got := Separation(p1, p2)
					want := d + p1.Radius + p2.Radius
					if got+1e-9 < want {
						t.Errorf("%s/%s %v d=%v: separation %v < %v", a1.ID, a2.ID, rel, d, got, want)
					}
				}
			}
		}
	}
}

func TestPlaceAxis(t *testing.T) {
	tests := []struct {
		rel  scene.Relation
		want func(r3.Vector) bool
	}{
		{scene.Left, func(v r3.Vector) bool { return v.X < 0 && v.Y == 0 }},
		{scene.Right, func(v r3.Vector) bool { return v.X > 0 && v.Y == 0 }},
		{scene.Front, func(v r3.Vector) bool { return v.Y < 0 && v.X == 0 }},
		{scene.Behind, func(v r3.Vector) bool { return v.Y > 0 && v.X == 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.rel.String(), func(t *testing.T) {
			p1, p2, err := Place(shoe, puma, tt.rel, 1, 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			if p1.Horizontal().Norm() != 0 {
				t.Errorf("object1 should be anchored at the origin, got %v", p1.Position)
			}
			if !tt.want(p2.Horizontal()) {
				t.Errorf("object2 at %v not on the %v side", p2.Position, tt.rel)
			}
		})
	}
}

func TestPlaceShoePumaScenario(t *testing.T) {
	p1, p2, err := Place(shoe, puma, scene.Left, 3, 180, 90)
	if err != nil {
		t.Fatal(err)
	}
	if p1.AssetID != "shoe" || p2.AssetID != "puma" {
		t.Fatalf("asset ids = %s, %s", p1.AssetID, p2.AssetID)
	}
	if p2.Position.X >= 0 {
		t.Errorf("puma should be left of the shoe, x = %v", p2.Position.X)
	}
	if Separation(p1, p2) < 3+p1.Radius+p2.Radius-1e-9 {
		t.Errorf("separation %v below 3m + radii", Separation(p1, p2))
	}
	if p1.Yaw != 180 || p2.Yaw != 90 {
		t.Errorf("yaws = %v, %v; want 180, 90", p1.Yaw, p2.Yaw)
	}
}

func TestPlaceScaling(t *testing.T) {
	p1, p2, err := Place(shoe, mug, scene.Right, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// small + small pairs are scaled by 3.
	if p1.Scale != 3 || math.Abs(p2.Scale-1.5) > 1e-12 {
		t.Errorf("scales = %v, %v; want 3, 1.5", p1.Scale, p2.Scale)
	}
	wantR := math.Hypot(0.3, 0.12) / 2 * 3
	if math.Abs(p1.Radius-wantR) > 1e-12 {
		t.Errorf("radius = %v, want %v", p1.Radius, wantR)
	}
	if math.Abs(p1.Position.Z-0.15) > 1e-12 {
		t.Errorf("object should rest on the ground, z = %v", p1.Position.Z)
	}

	q1, _, err := Place(shoe, mug, scene.Right, 1, 0, 0, WithPairScale(false))
	if err != nil {
		t.Fatal(err)
	}
	if q1.Scale != 1 {
		t.Errorf("pair scale disabled: scale = %v, want 1", q1.Scale)
	}
}

func TestPlaceClampsGap(t *testing.T) {
	p1, p2, err := Place(shoe, puma, scene.Behind, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	gap := Separation(p1, p2) - p1.Radius - p2.Radius
	if gap < MinGap-1e-12 {
		t.Errorf("gap %v below MinGap", gap)
	}
}

func TestPlaceRotationIndependentOfPosition(t *testing.T) {
	a1, a2, _ := Place(shoe, puma, scene.Front, 2, 0, 0)
	b1, b2, _ := Place(shoe, puma, scene.Front, 2, 45, 270)
	if a1.Position != b1.Position || a2.Position != b2.Position {
		t.Error("rotations must not move the objects")
	}
	if b1.Yaw != 45 || b2.Yaw != 270 {
		t.Errorf("yaws = %v, %v", b1.Yaw, b2.Yaw)
	}
}

func TestPlaceInvalidInput(t *testing.T) {
	if _, _, err := Place(shoe, puma, scene.Left, -1, 0, 0); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("negative distance: %v", err)
	}
	if _, _, err := Place(shoe, puma, scene.Relation(7), 1, 0, 0); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("invalid relation: %v", err)
	}
}

func TestCheckSymmetric(t *testing.T) {
	mk := func(id string, x, r float64) scene.Placement {
		return scene.Placement{AssetID: id, Position: r3.Vector{X: x}, Radius: r}
	}
	tests := []struct {
		name     string
		p1, p2   scene.Placement
		distance float64
		overlap  bool
	}{
		{"clear", mk("a", 0, 0.5), mk("b", 3, 0.5), 1, false},
		{"exact", mk("a", 0, 0.5), mk("b", 2, 0.5), 1, false},
		{"touching", mk("a", 0, 0.5), mk("b", 1, 0.5), 1, true},
		{"uneven radii", mk("a", 0, 0.1), mk("b", 1.5, 1.2), 0.5, true},
		{"negative radius", mk("a", 0, -1), mk("b", 5, 0.5), 1, true},
		{"nan", mk("a", 0, math.NaN()), mk("b", 5, 0.5), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e1 := Check(tt.p1, tt.p2, tt.distance)
			e2 := Check(tt.p2, tt.p1, tt.distance)
			if (e1 != nil) != (e2 != nil) {
				t.Fatalf("verdict not symmetric: %v vs %v", e1, e2)
			}
			if (e1 != nil) != tt.overlap {
				t.Errorf("Check = %v, want overlap %v", e1, tt.overlap)
			}
			if e1 != nil && !errors.Is(e1, errors.ErrCodeOverlap) {
				t.Errorf("code = %s, want OVERLAP", errors.GetCode(e1))
			}
		})
	}
}

func TestPlaceSwapSymmetricVerdict(t *testing.T) {
	for _, rel := range scene.Relations {
		_, _, e1 := Place(shoe, puma, rel, 1, 0, 0)
		_, _, e2 := Place(puma, shoe, rel, 1, 0, 0)
		if (e1 != nil) != (e2 != nil) {
			t.Errorf("%v: swapped verdicts differ: %v vs %v", rel, e1, e2)
		}
	}
}
