package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/spatialgen/pkg/camera"
	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// cameraFlags pin camera parameters. Unset flags stay free.
type cameraFlags struct {
	tilt, pan, height, focal float64
	flags                    *pflag.FlagSet
}

func (f *cameraFlags) register(fs *pflag.FlagSet) {
	f.flags = fs
	fs.Float64Var(&f.tilt, "camera-tilt", 0, "camera tilt in degrees (90 looks at the horizon)")
	fs.Float64Var(&f.pan, "camera-pan", 0, "camera pan in degrees around the vertical axis")
	fs.Float64Var(&f.height, "camera-height", 0, "camera height above the ground")
	fs.Float64Var(&f.focal, "camera-focal-length", 0, "camera focal length in millimetres")
}

// spec returns the pinned parameters.
func (f *cameraFlags) spec() camera.Spec {
	var s camera.Spec
	pin := func(name string, v float64) *float64 {
		if f.flags != nil && f.flags.Changed(name) {
			return &v
		}
		return nil
	}
	s.Tilt = pin("camera-tilt", f.tilt)
	s.Pan = pin("camera-pan", f.pan)
	s.Height = pin("camera-height", f.height)
	s.FocalLength = pin("camera-focal-length", f.focal)
	return s
}

// outputFlags override engine and layout settings from the config.
type outputFlags struct {
	engine     string
	format     string
	distance   float64
	imageDir   string
	sceneDir   string
	prefix     string
	properties string
	noScale    bool
	flags      *pflag.FlagSet
}

func (f *outputFlags) register(fs *pflag.FlagSet) {
	f.flags = fs
	fs.StringVar(&f.engine, "engine", "", "render engine: schematic, command (default from config)")
	fs.StringVar(&f.format, "format", "", "image format: png, webp (default from config)")
	fs.Float64Var(&f.distance, "distance-between-objects", 3, "gap between the object footprints")
	fs.StringVar(&f.properties, "properties", "", "asset properties file or directory")
	fs.StringVar(&f.imageDir, "output-image-dir", "", "image output root")
	fs.StringVar(&f.sceneDir, "output-scene-dir", "", "metadata output root")
	fs.StringVar(&f.prefix, "filename-prefix", "", "file name prefix")
	fs.BoolVar(&f.noScale, "no-pair-scale", false, "do not enlarge small objects next to each other")
}

func (f *outputFlags) runnerOpts() runnerOpts {
	return runnerOpts{
		engine:   f.engine,
		format:   f.format,
		distance: f.distance,
		hasDist:  f.flags != nil && f.flags.Changed("distance-between-objects"),
		imageDir: f.imageDir,
		sceneDir: f.sceneDir,
		prefix:   f.prefix,
		noScale:  f.noScale,
	}
}

// spaceFlags select the combination space of batch and plan.
type spaceFlags struct {
	objects          []string
	directions       []string
	maxImages        int
	maxCameraConfigs int
	random           bool
	seed             uint64
	sweep            string
	shard            string
	offset           int
	limit            int
	rot1, rot2       float64
	camera           cameraFlags
	flags            *pflag.FlagSet
}

func (f *spaceFlags) register(fs *pflag.FlagSet) {
	f.flags = fs
	fs.StringSliceVar(&f.objects, "objects", nil, "object ids (default: whole catalog)")
	fs.StringSliceVar(&f.directions, "direction", nil, "relations to render: left, right, front, behind (default: all)")
	fs.IntVar(&f.maxImages, "max-images", 1, "orientations per pair and relation")
	fs.IntVar(&f.maxCameraConfigs, "max-camera-configs", 1, "camera configurations")
	fs.BoolVar(&f.random, "render-random", false, "sample orientations and cameras at random")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed; reuse it to resume or shard a --render-random run (default: derived from the clock and logged)")
	fs.StringVar(&f.sweep, "sweep", string(enumerate.SweepNone), "orientation sweep without --render-random: none, quarter-turns")
	fs.StringVar(&f.shard, "shard", "0/1", "render only shard i of n")
	fs.IntVar(&f.offset, "offset", 0, "skip this many combinations of the shard")
	fs.IntVar(&f.limit, "limit", 0, "stop after this many combinations (0: all)")
	fs.Float64Var(&f.rot1, "object1-rotation", 0, "object1 yaw in degrees when not sampling")
	fs.Float64Var(&f.rot2, "object2-rotation", 0, "object2 yaw in degrees when not sampling")
	f.camera.register(fs)
}

// options builds enumerator options. The seed is taken from the clock
// when --seed was not given, which sharded random runs reject.
func (f *spaceFlags) options(ranges camera.Ranges) (enumerate.Options, error) {
	rels, err := parseRelations(f.directions)
	if err != nil {
		return enumerate.Options{}, err
	}
	sweep, err := enumerate.ParseSweep(f.sweep)
	if err != nil {
		return enumerate.Options{}, err
	}
	shard, err := enumerate.ParseShard(f.shard)
	if err != nil {
		return enumerate.Options{}, err
	}
	seed := f.seed
	if f.flags == nil || !f.flags.Changed("seed") {
		// Every shard must draw from the same space.
		if f.random && shard.Count > 1 {
			return enumerate.Options{}, errors.New(errors.ErrCodeInvalidConfig,
				"--render-random with --shard %s needs an explicit --seed shared by all shards", shard)
		}
		seed = uint64(time.Now().UnixNano())
	}
	return enumerate.Options{
		Objects:          f.objects,
		Relations:        rels,
		MaxImages:        f.maxImages,
		MaxCameraConfigs: f.maxCameraConfigs,
		Random:           f.random,
		Seed:             seed,
		Camera:           f.camera.spec(),
		Ranges:           ranges,
		Rotation1:        f.rot1,
		Rotation2:        f.rot2,
		Sweep:            sweep,
		Shard:            shard,
		Offset:           f.offset,
		Limit:            f.limit,
	}, nil
}

func parseRelations(names []string) ([]scene.Relation, error) {
	var rels []scene.Relation
	for _, n := range names {
		r, err := scene.ParseRelation(strings.TrimSpace(n))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "--direction")
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// requireFlags fails when any of names was not set on cmd.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, n := range names {
		if !cmd.Flags().Changed(n) {
			missing = append(missing, "--"+n)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "missing required %s", strings.Join(missing, ", "))
	}
	return nil
}

func formatCamera(c scene.CameraConfig) string {
	return fmt.Sprintf("tilt %g° pan %g° height %g focal %gmm", c.Tilt, c.Pan, c.Height, c.FocalLength)
}
