package scene

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Tolerance is the absolute tolerance used when comparing camera values.
const Tolerance = 1e-6

// Placement is the transform of one object in one image.
type Placement struct {
	AssetID  string    // Catalog id of the placed asset
	Position r3.Vector // Centre of the object; Z rests the object on the ground
	Yaw      float64   // Rotation about +Z in degrees, [0, 360)
	Scale    float64   // Effective scale factor applied to the asset
	Radius   float64   // Effective footprint radius in metres
}

// Horizontal returns the ground-plane projection of the position.
func (p Placement) Horizontal() r3.Vector {
	return r3.Vector{X: p.Position.X, Y: p.Position.Y}
}

// CameraConfig describes the camera for one image.
type CameraConfig struct {
	Tilt        float64 `json:"tilt" toml:"tilt"`                 // Degrees about X; 90 looks at the horizon
	Pan         float64 `json:"pan" toml:"pan"`                   // Degrees about Z
	Height      float64 `json:"height" toml:"height"`             // Metres above the ground
	FocalLength float64 `json:"focal_length" toml:"focal_length"` // Millimetres
}

// Equal reports whether two configs match within [Tolerance].
func (c CameraConfig) Equal(o CameraConfig) bool {
	return near(c.Tilt, o.Tilt) && near(c.Pan, o.Pan) &&
		near(c.Height, o.Height) && near(c.FocalLength, o.FocalLength)
}

// String returns a compact human-readable form.
func (c CameraConfig) String() string {
	return fmt.Sprintf("tilt=%g pan=%g height=%g focal=%g", c.Tilt, c.Pan, c.Height, c.FocalLength)
}

func near(a, b float64) bool { return math.Abs(a-b) <= Tolerance }

// Combination is one unit of work: exactly one image and one metadata record.
type Combination struct {
	Index       int          // Global ordinal in the enumeration; stable across shards
	Object1     string       // Anchor object id
	Object2     string       // Placed object id
	Relation    Relation     // Position of Object2 relative to Object1
	Rotation1   float64      // Yaw of Object1 in degrees
	Rotation2   float64      // Yaw of Object2 in degrees
	CameraIndex int          // Index into the run's camera configs
	Camera      CameraConfig // The bound camera config
}

// Pair returns the "<object1>_<object2>" directory name.
func (c Combination) Pair() string { return c.Object1 + "_" + c.Object2 }

// Bucket returns the "<object1>_<object2>_<relation>" directory name.
func (c Combination) Bucket() string { return c.Pair() + "_" + c.Relation.String() }

// Validate checks the structural invariants of a combination.
func (c Combination) Validate() error {
	if c.Object1 == "" || c.Object2 == "" {
		return fmt.Errorf("combination %d: missing object id", c.Index)
	}
	if c.Object1 == c.Object2 {
		return fmt.Errorf("combination %d: object1 and object2 are both %q", c.Index, c.Object1)
	}
	if !c.Relation.Valid() {
		return fmt.Errorf("combination %d: invalid relation %d", c.Index, int(c.Relation))
	}
	return nil
}

// NormalizeYaw maps an angle in degrees into [0, 360).
func NormalizeYaw(deg float64) float64 {
	y := math.Mod(deg, 360)
	if y < 0 {
		y += 360
	}
	if y >= 360 || y == 0 {
		return 0
	}
	return y
}
