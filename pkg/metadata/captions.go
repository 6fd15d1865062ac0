package metadata

import (
	"strings"

	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Captions holds caption templates keyed by relation name. Templates may
// use {figure} and {ground}; the ground is the object whose frame is used.
type Captions struct {
	Translational map[string]string `toml:"translational" json:"translational"`
	Reflectional  map[string]string `toml:"reflectional" json:"reflectional"`
	Intrinsic     map[string]string `toml:"intrinsic" json:"intrinsic"`
}

// DefaultCaptions returns the built-in English templates.
func DefaultCaptions() Captions {
	return Captions{
		Translational: map[string]string{
			"front":  "The {figure} is in front of the {ground}.",
			"right":  "The {figure} is to the right of the {ground}.",
			"behind": "The {figure} is behind the {ground}.",
			"left":   "The {figure} is to the left of the {ground}.",
		},
		Reflectional: map[string]string{
			"front":  "From the viewer's position, the {figure} is closer than the {ground}.",
			"right":  "From the viewer's position, the {figure} appears to the right of the {ground}.",
			"behind": "From the viewer's position, the {figure} is farther away than the {ground}.",
			"left":   "From the viewer's position, the {figure} appears to the left of the {ground}.",
		},
		Intrinsic: map[string]string{
			"front":  "The {figure} is in front of the {ground}, facing the way the {ground} faces.",
			"right":  "The {figure} is on the {ground}'s right-hand side.",
			"behind": "The {figure} is behind the {ground}'s back.",
			"left":   "The {figure} is on the {ground}'s left-hand side.",
		},
	}
}

// Merge returns c with missing templates taken from fallback.
func (c Captions) Merge(fallback Captions) Captions {
	return Captions{
		Translational: mergeTemplates(c.Translational, fallback.Translational),
		Reflectional:  mergeTemplates(c.Reflectional, fallback.Reflectional),
		Intrinsic:     mergeTemplates(c.Intrinsic, fallback.Intrinsic),
	}
}

func mergeTemplates(m, fallback map[string]string) map[string]string {
	out := make(map[string]string, len(fallback))
	for k, v := range fallback {
		out[k] = v
	}
	for k, v := range m {
		if v != "" {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

func fill(tmpl string, figure, ground string) string {
	return strings.NewReplacer("{figure}", displayName(figure), "{ground}", displayName(ground)).Replace(tmpl)
}

func displayName(id string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(id)
}

// IntrinsicRelation returns where other lies in the own frame of an object
// facing the given world direction. For an object facing the camera its own
// left is the viewer's right.
func IntrinsicRelation(facing, other scene.Relation) scene.Relation {
	own := [...]scene.Relation{scene.Front, scene.Left, scene.Behind, scene.Right}
	return own[((int(other)-int(facing))%4+4)%4]
}
