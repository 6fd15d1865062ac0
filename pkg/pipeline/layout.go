package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Layout maps combinations to output paths:
//
//	<image_root>/<o1>_<o2>/<o1>_<o2>_<rel>/<prefix>_<index>.<ext>
//	<scene_root>/<o1>_<o2>/<o1>_<o2>_<rel>/<prefix>_<index>.json
type Layout struct {
	ImageRoot string
	SceneRoot string
	Prefix    string
	Ext       string
}

// Validate checks the roots and the prefix.
func (l Layout) Validate() error {
	if l.ImageRoot == "" || l.SceneRoot == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "output image and scene directories are required")
	}
	if l.Ext == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "image extension is required")
	}
	return errors.ValidateFilenamePrefix(l.Prefix)
}

// Name returns the file name stem of a combination.
func (l Layout) Name(c scene.Combination) string {
	return fmt.Sprintf("%s_%06d", l.Prefix, c.Index)
}

// ImagePath returns where the image of c is written.
func (l Layout) ImagePath(c scene.Combination) string {
	return filepath.Join(l.ImageRoot, c.Pair(), c.Bucket(), l.Name(c)+"."+l.Ext)
}

// ScenePath returns where the metadata of c is written.
func (l Layout) ScenePath(c scene.Combination) string {
	return filepath.Join(l.SceneRoot, c.Pair(), c.Bucket(), l.Name(c)+".json")
}

// ManifestPath returns the manifest location for a shard.
func (l Layout) ManifestPath(shardIndex, shardCount int) string {
	if shardCount > 1 {
		return filepath.Join(l.SceneRoot, fmt.Sprintf("manifest-%d-of-%d.json", shardIndex, shardCount))
	}
	return filepath.Join(l.SceneRoot, "manifest.json")
}
