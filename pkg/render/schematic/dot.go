package schematic

import (
	"bytes"
	"fmt"
	"math"

	"github.com/matzehuels/spatialgen/pkg/camera"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// cameraOffset is how far the camera marker sits from the scene centre, in
// metres beyond the farthest footprint.
const cameraOffset = 1.0

var fills = []string{"#8ecae6", "#ffb703", "#90be6d", "#f28482"}

// ToDOT converts loaded objects and a camera to Graphviz DOT with pinned
// positions.
func ToDOT(objects []render.Object, cam scene.CameraConfig) string {
	var buf bytes.Buffer
	buf.WriteString("graph S {\n")
	buf.WriteString("  bgcolor=white;\n")
	buf.WriteString("  dpi=96;\n")
	buf.WriteString("  pad=0.4;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, fontsize=10, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")

	var cx, cy, extent float64
	for _, o := range objects {
		cx += o.Placement.Position.X
		cy += o.Placement.Position.Y
	}
	if n := float64(len(objects)); n > 0 {
		cx, cy = cx/n, cy/n
	}

	for i, o := range objects {
		p := o.Placement
		extent = math.Max(extent, math.Hypot(p.Position.X-cx, p.Position.Y-cy)+p.Radius)
		fmt.Fprintf(&buf, "  %q [label=%q, width=%.4f, pos=\"%.4f,%.4f!\", fillcolor=%q];\n",
			p.AssetID, label(o), 2*p.Radius, p.Position.X, p.Position.Y, fills[i%len(fills)])
	}

	// The camera looks along its ground forward vector, so it stands on the
	// opposite side of the scene.
	fwd := camera.NewFrame(cam).GroundForward()
	d := extent + cameraOffset
	fmt.Fprintf(&buf, "  \"camera\" [shape=triangle, label=\"cam\", width=0.35, fillcolor=\"#adb5bd\", pos=\"%.4f,%.4f!\"];\n",
		cx-fwd.X*d, cy-fwd.Y*d)
	fmt.Fprintf(&buf, "  \"target\" [shape=point, width=0.05, style=invis, pos=\"%.4f,%.4f!\"];\n", cx, cy)
	buf.WriteString("  \"camera\" -- \"target\" [style=dashed, color=\"#6c757d\"];\n")

	buf.WriteString("}\n")
	return buf.String()
}

func label(o render.Object) string {
	if facing, ok := o.Asset.Facing(o.Placement.Yaw); ok {
		return fmt.Sprintf("%s\nfaces %s", o.Asset.ID, facing)
	}
	return o.Asset.ID
}
