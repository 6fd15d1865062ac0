package camera

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/matzehuels/spatialgen/pkg/scene"
)

// degenerate is the ground-projection length below which a basis vector
// is considered vertical.
const degenerate = 1e-9

// Frame is the camera basis in world coordinates.
type Frame struct {
	Forward r3.Vector // Viewing direction (local -Z)
	Right   r3.Vector // Image right (local +X)
	Up      r3.Vector // Image up (local +Y)

	groundRight   r3.Vector
	groundForward r3.Vector
}

// NewFrame builds the camera basis for cfg.
func NewFrame(cfg scene.CameraConfig) Frame {
	st, ct := math.Sincos(cfg.Tilt * math.Pi / 180)
	sp, cp := math.Sincos(cfg.Pan * math.Pi / 180)

	f := Frame{
		Forward: r3.Vector{X: -sp * st, Y: cp * st, Z: -ct},
		Right:   r3.Vector{X: cp, Y: sp, Z: 0},
		Up:      r3.Vector{X: -sp * ct, Y: cp * ct, Z: st},
	}
	f.groundRight = ground(f.Right)
	f.groundForward = ground(f.Forward)
	if f.groundForward.Norm() < degenerate {
		// Looking straight down: image-up points away from the viewer.
		f.groundForward = ground(f.Up)
	}
	f.groundRight = f.groundRight.Normalize()
	f.groundForward = f.groundForward.Normalize()
	return f
}

func ground(v r3.Vector) r3.Vector { return r3.Vector{X: v.X, Y: v.Y} }

// GroundRight returns the unit ground-plane direction that appears to the
// right in the image.
func (f Frame) GroundRight() r3.Vector { return f.groundRight }

// GroundForward returns the unit ground-plane direction that appears to
// recede away from the viewer.
func (f Frame) GroundForward() r3.Vector { return f.groundForward }

// Perspective is the apparent relation of a displacement seen from the camera.
type Perspective struct {
	Relation scene.Relation
	Lateral  float64 // Component along GroundRight; positive is right
	Depth    float64 // Component along GroundForward; positive is behind

	// Ambiguous is set when both components have the same magnitude, as
	// on a diagonal view. Relation then holds the lateral reading.
	Ambiguous bool
}

// Classify returns the apparent relation of displacement d (object2 minus
// object1). The dominant component wins; lateral wins ties and the result
// is marked Ambiguous.
func (f Frame) Classify(d r3.Vector) Perspective {
	h := ground(d)
	p := Perspective{Lateral: h.Dot(f.groundRight), Depth: h.Dot(f.groundForward)}
	lat, dep := math.Abs(p.Lateral), math.Abs(p.Depth)
	p.Ambiguous = lat+dep > degenerate && math.Abs(lat-dep) <= degenerate*max(1, lat+dep)
	switch {
	case math.Abs(p.Lateral)+degenerate >= math.Abs(p.Depth):
		p.Relation = scene.Left
		if p.Lateral > 0 {
			p.Relation = scene.Right
		}
	default:
		p.Relation = scene.Front
		if p.Depth > 0 {
			p.Relation = scene.Behind
		}
	}
	return p
}

// DepthRelation is the front/behind reading of p, whichever component
// dominates.
func (p Perspective) DepthRelation() scene.Relation {
	if p.Depth > 0 {
		return scene.Behind
	}
	return scene.Front
}
