package camera

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Range is an inclusive interval.
type Range struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// Mid returns the centre of the range.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

// Ranges holds the legal interval of each camera parameter and the number
// of lattice steps used by deterministic stepping.
type Ranges struct {
	Tilt        Range `toml:"tilt"`
	Pan         Range `toml:"pan"`
	Height      Range `toml:"height"`
	FocalLength Range `toml:"focal_length"`
	Steps       int   `toml:"steps"`
}

// DefaultRanges keeps the camera close to the horizon and slightly panned,
// which avoids top-down and fully occluded views.
func DefaultRanges() Ranges {
	return Ranges{
		Tilt:        Range{Min: 85, Max: 95},
		Pan:         Range{Min: 40, Max: 50},
		Height:      Range{Min: 0.5, Max: 1.5},
		FocalLength: Range{Min: 50, Max: 70},
		Steps:       3,
	}
}

// Validate checks that every range is ordered and finite.
func (r Ranges) Validate() error {
	for name, rg := range map[string]Range{
		"tilt": r.Tilt, "pan": r.Pan, "height": r.Height, "focal_length": r.FocalLength,
	} {
		if math.IsNaN(rg.Min) || math.IsNaN(rg.Max) || math.IsInf(rg.Min, 0) || math.IsInf(rg.Max, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "camera %s range must be finite", name)
		}
		if rg.Min > rg.Max {
			return errors.New(errors.ErrCodeInvalidConfig, "camera %s range is inverted (%g > %g)", name, rg.Min, rg.Max)
		}
	}
	if r.Height.Min <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "camera height must be above the ground")
	}
	if r.FocalLength.Min <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "camera focal length must be positive")
	}
	if r.Steps < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "camera steps must be at least 1")
	}
	return nil
}

// Spec pins camera parameters supplied by the caller. Nil means free.
type Spec struct {
	Tilt        *float64
	Pan         *float64
	Height      *float64
	FocalLength *float64
}

// Complete reports whether all four parameters are pinned.
func (s Spec) Complete() bool {
	return s.Tilt != nil && s.Pan != nil && s.Height != nil && s.FocalLength != nil
}

// Empty reports whether no parameter is pinned.
func (s Spec) Empty() bool {
	return s.Tilt == nil && s.Pan == nil && s.Height == nil && s.FocalLength == nil
}

// Resolve fills free parameters with the centre of their range.
func (s Spec) Resolve(r Ranges) scene.CameraConfig {
	return scene.CameraConfig{
		Tilt:        pick(s.Tilt, r.Tilt.Mid()),
		Pan:         pick(s.Pan, r.Pan.Mid()),
		Height:      pick(s.Height, r.Height.Mid()),
		FocalLength: pick(s.FocalLength, r.FocalLength.Mid()),
	}
}

func pick(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

// Fixed returns cfg as the single config of a fixed-mode run.
func Fixed(cfg scene.CameraConfig) []scene.CameraConfig {
	return []scene.CameraConfig{cfg}
}

// Configs produces up to n distinct camera configs. See the package
// documentation for the selection rules.
func Configs(spec Spec, n int, random bool, seed uint64, ranges Ranges) ([]scene.CameraConfig, error) {
	if n < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "max camera configs must be at least 1, got %d", n)
	}
	if err := ranges.Validate(); err != nil {
		return nil, err
	}
	if spec.Complete() {
		return Fixed(spec.Resolve(ranges)), nil
	}
	if random {
		return sample(spec, n, seed, ranges), nil
	}
	if n > 1 && spec.Empty() {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"max camera configs %d requires at least one camera parameter or random mode", n)
	}
	return step(spec, n, ranges), nil
}

// step picks n configs at an even stride over the lattice of free values.
func step(spec Spec, n int, ranges Ranges) []scene.CameraConfig {
	lattice := Lattice(spec, ranges)
	if n >= len(lattice) {
		return lattice
	}
	out := make([]scene.CameraConfig, n)
	for i := range out {
		out[i] = lattice[i*len(lattice)/n]
	}
	return out
}

// Lattice enumerates every combination of stepped values, tilt-major.
func Lattice(spec Spec, ranges Ranges) []scene.CameraConfig {
	tilts := values(spec.Tilt, ranges.Tilt, ranges.Steps)
	pans := values(spec.Pan, ranges.Pan, ranges.Steps)
	heights := values(spec.Height, ranges.Height, ranges.Steps)
	focals := values(spec.FocalLength, ranges.FocalLength, ranges.Steps)

	out := make([]scene.CameraConfig, 0, len(tilts)*len(pans)*len(heights)*len(focals))
	for _, t := range tilts {
		for _, p := range pans {
			for _, h := range heights {
				for _, f := range focals {
					out = appendDistinct(out, scene.CameraConfig{Tilt: t, Pan: p, Height: h, FocalLength: f})
				}
			}
		}
	}
	return out
}

// values returns the pinned value or steps evenly spaced values over r.
func values(pinned *float64, r Range, steps int) []float64 {
	if pinned != nil {
		return []float64{*pinned}
	}
	if steps <= 1 || r.Min == r.Max {
		return []float64{round2(r.Mid())}
	}
	out := make([]float64, steps)
	for i := range out {
		out[i] = round2(r.Min + (r.Max-r.Min)*float64(i)/float64(steps-1))
	}
	return out
}

// maxDrawsPerConfig bounds rejection sampling when the space is tiny.
const maxDrawsPerConfig = 100

func sample(spec Spec, n int, seed uint64, ranges Ranges) []scene.CameraConfig {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eedca3e7a))
	draw := func(pinned *float64, r Range) float64 {
		if pinned != nil {
			return *pinned
		}
		return round2(r.Min + rng.Float64()*(r.Max-r.Min))
	}

	out := make([]scene.CameraConfig, 0, n)
	for tries := 0; len(out) < n && tries < n*maxDrawsPerConfig; tries++ {
		out = appendDistinct(out, scene.CameraConfig{
			Tilt:        draw(spec.Tilt, ranges.Tilt),
			Pan:         draw(spec.Pan, ranges.Pan),
			Height:      draw(spec.Height, ranges.Height),
			FocalLength: draw(spec.FocalLength, ranges.FocalLength),
		})
	}
	return out
}

func appendDistinct(out []scene.CameraConfig, c scene.CameraConfig) []scene.CameraConfig {
	for _, o := range out {
		if o.Equal(c) {
			return out
		}
	}
	return append(out, c)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
