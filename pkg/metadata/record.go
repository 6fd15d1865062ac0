package metadata

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/spatialgen/pkg/camera"
	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Record is the metadata of one image. Field order is the JSON order.
type Record struct {
	ImageIndex               int         `json:"image_index"`
	ImageFilename            string      `json:"image_filename"`
	Object1                  string      `json:"object1"`
	Object2                  string      `json:"object2"`
	Relation                 string      `json:"relation"`
	Object1Position          Vec         `json:"object1_position"`
	Object1Rotation          Float       `json:"object1_rotation"`
	Object2Position          Vec         `json:"object2_position"`
	Object2Rotation          Float       `json:"object2_rotation"`
	Object1Scale             Float       `json:"object1_scale"`
	Object2Scale             Float       `json:"object2_scale"`
	Distance                 Float       `json:"distance"`
	Camera                   Camera      `json:"camera"`
	RelativePerspective      Perspective `json:"relative_perspective"`
	Object1Orientation       string      `json:"object1_orientation,omitempty"`
	Object2Orientation       string      `json:"object2_orientation,omitempty"`
	Object1IntrinsicRelation string      `json:"object1_intrinsic_relation,omitempty"`
	Object2IntrinsicRelation string      `json:"object2_intrinsic_relation,omitempty"`
	Captions                 Texts       `json:"captions"`
}

// Camera is the encoded camera config.
type Camera struct {
	Tilt        Float `json:"tilt"`
	Pan         Float `json:"pan"`
	Height      Float `json:"height"`
	FocalLength Float `json:"focal_length"`
}

// Perspective is where object2 appears relative to object1 from the camera.
type Perspective struct {
	Relation string `json:"relation"`
	Lateral  Float  `json:"lateral"`
	Depth    Float  `json:"depth"`

	// Set on diagonal views, where Relation is the lateral reading and
	// Alternative the front/behind one.
	Ambiguous   bool   `json:"ambiguous,omitempty"`
	Alternative string `json:"alternative,omitempty"`
}

// Texts are the rendered captions of one image.
type Texts struct {
	Translational string `json:"translational"`
	Reflectional  string `json:"reflectional"`
	Intrinsic1    string `json:"intrinsic1,omitempty"`
	Intrinsic2    string `json:"intrinsic2,omitempty"`
}

// Options carries the render settings that flow into a record.
type Options struct {
	ImageFilename string
	Distance      float64
	Catalog       *catalog.Catalog // Optional; enables orientation fields
	Captions      Captions         // Missing templates fall back to DefaultCaptions
}

// Describe builds the record of one image.
func Describe(c scene.Combination, p1, p2 scene.Placement, cam scene.CameraConfig, opts Options) Record {
	captions := opts.Captions.Merge(DefaultCaptions())
	view := camera.NewFrame(cam).Classify(p2.Horizontal().Sub(p1.Horizontal()))

	rec := Record{
		ImageIndex:      c.Index,
		ImageFilename:   opts.ImageFilename,
		Object1:         c.Object1,
		Object2:         c.Object2,
		Relation:        c.Relation.String(),
		Object1Position: vec(p1),
		Object1Rotation: Float(p1.Yaw),
		Object2Position: vec(p2),
		Object2Rotation: Float(p2.Yaw),
		Object1Scale:    Float(p1.Scale),
		Object2Scale:    Float(p2.Scale),
		Distance:        Float(opts.Distance),
		Camera: Camera{
			Tilt:        Float(cam.Tilt),
			Pan:         Float(cam.Pan),
			Height:      Float(cam.Height),
			FocalLength: Float(cam.FocalLength),
		},
		RelativePerspective: Perspective{
			Relation: view.Relation.String(),
			Lateral:  Float(view.Lateral),
			Depth:    Float(view.Depth),
		},
		Captions: Texts{
			Translational: fill(captions.Translational[c.Relation.String()], c.Object2, c.Object1),
			Reflectional:  fill(captions.Reflectional[view.Relation.String()], c.Object2, c.Object1),
		},
	}
	if view.Ambiguous {
		rec.RelativePerspective.Ambiguous = true
		rec.RelativePerspective.Alternative = view.DepthRelation().String()
	}

	if opts.Catalog == nil {
		return rec
	}
	if a1, err := opts.Catalog.Resolve(c.Object1); err == nil {
		if facing, ok := a1.Facing(p1.Yaw); ok {
			rel := IntrinsicRelation(facing, c.Relation)
			rec.Object1Orientation = facing.String()
			rec.Object1IntrinsicRelation = rel.String()
			rec.Captions.Intrinsic1 = fill(captions.Intrinsic[rel.String()], c.Object2, c.Object1)
		}
	}
	if a2, err := opts.Catalog.Resolve(c.Object2); err == nil {
		if facing, ok := a2.Facing(p2.Yaw); ok {
			rel := IntrinsicRelation(facing, c.Relation.Opposite())
			rec.Object2Orientation = facing.String()
			rec.Object2IntrinsicRelation = rel.String()
			rec.Captions.Intrinsic2 = fill(captions.Intrinsic[rel.String()], c.Object1, c.Object2)
		}
	}
	return rec
}

func vec(p scene.Placement) Vec {
	return Vec{Float(p.Position.X), Float(p.Position.Y), Float(p.Position.Z)}
}

// Encode returns the indented JSON form of rec followed by a newline.
func Encode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a record written by Encode.
func Decode(data []byte) (Record, error) {
	var rec Record
	err := json.Unmarshal(data, &rec)
	return rec, err
}
