package enumerate

import (
	"fmt"
	"hash/fnv"
	"iter"
	"math/rand/v2"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/spatialgen/pkg/camera"
	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Sweep selects how orientations are varied outside random mode.
type Sweep string

// Sweep modes.
const (
	SweepNone         Sweep = "none"
	SweepQuarterTurns Sweep = "quarter-turns"
)

// ParseSweep parses a sweep mode. The empty string means [SweepNone].
func ParseSweep(s string) (Sweep, error) {
	switch Sweep(strings.ToLower(strings.TrimSpace(s))) {
	case "", SweepNone:
		return SweepNone, nil
	case SweepQuarterTurns:
		return SweepQuarterTurns, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "invalid sweep %q (must be none or quarter-turns)", s)
}

// Shard selects one of Count disjoint slices of the space.
type Shard struct {
	Index int
	Count int
}

// ParseShard parses "i/n".
func ParseShard(s string) (Shard, error) {
	i, n, ok := strings.Cut(s, "/")
	if !ok {
		return Shard{}, errors.New(errors.ErrCodeInvalidConfig, "invalid shard %q (want i/n)", s)
	}
	idx, err1 := strconv.Atoi(strings.TrimSpace(i))
	cnt, err2 := strconv.Atoi(strings.TrimSpace(n))
	if err1 != nil || err2 != nil {
		return Shard{}, errors.New(errors.ErrCodeInvalidConfig, "invalid shard %q (want i/n)", s)
	}
	sh := Shard{Index: idx, Count: cnt}
	return sh, sh.validate()
}

func (s Shard) String() string { return fmt.Sprintf("%d/%d", s.Index, s.Count) }

func (s Shard) validate() error {
	if s.Count < 1 || s.Index < 0 || s.Index >= s.Count {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid shard %d/%d", s.Index, s.Count)
	}
	return nil
}

// Options configures an enumeration. The zero value enumerates every pair
// of the catalog under all relations with one orientation and one camera.
type Options struct {
	Objects          []string         // Object ids; empty means the whole catalog
	Relations        []scene.Relation // Empty means all four
	MaxImages        int              // Orientations per (pair, relation); 0 means 1
	MaxCameraConfigs int              // Camera configs; 0 means 1
	Random           bool
	Seed             uint64
	Camera           camera.Spec
	Ranges           camera.Ranges // Zero value means camera.DefaultRanges
	Rotation1        float64
	Rotation2        float64
	Sweep            Sweep
	Shard            Shard
	Offset           int // Shard items to skip
	Limit            int // Shard items to yield; 0 means all
}

// maxOrientations is the number of distinct whole-degree rotation pairs.
const maxOrientations = 360 * 360

type pair struct {
	a, b   catalog.Asset
	m      int // orientations per relation
	offset int // first ordinal of the pair
}

type orientation struct{ rot1, rot2 float64 }

// Enumerator yields combinations one at a time. It is not safe for
// concurrent use.
type Enumerator struct {
	opts      Options
	pairs     []pair
	relations []scene.Relation
	cameras   []scene.CameraConfig
	total     int

	next    int // shard-local position of the next item
	emitted int
	done    bool

	bucketPair, bucketRel int
	bucket                []orientation
}

// New validates opts against the catalog and prepares the enumeration.
func New(cat *catalog.Catalog, opts Options) (*Enumerator, error) {
	if err := normalize(&opts); err != nil {
		return nil, err
	}

	ids := opts.Objects
	if len(ids) == 0 {
		ids = cat.IDs()
	}
	ids = dedupe(ids)
	assets := make([]catalog.Asset, len(ids))
	for i, id := range ids {
		a, err := cat.Resolve(id)
		if err != nil {
			return nil, err
		}
		assets[i] = a
	}
	if len(assets) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "need at least 2 distinct objects, got %d", len(assets))
	}

	cams, err := camera.Configs(opts.Camera, opts.MaxCameraConfigs, opts.Random, opts.Seed, opts.Ranges)
	if err != nil {
		return nil, err
	}

	e := &Enumerator{
		opts:       opts,
		relations:  opts.Relations,
		cameras:    cams,
		bucketPair: -1,
	}
	for i := range assets {
		for j := i + 1; j < len(assets); j++ {
			p := pair{a: assets[i], b: assets[j], offset: e.total}
			p.m = e.orientationCount(p)
			e.pairs = append(e.pairs, p)
			e.total += p.m * len(e.relations) * len(e.cameras)
		}
	}
	return e, nil
}

func normalize(o *Options) error {
	if o.MaxImages == 0 {
		o.MaxImages = 1
	}
	if o.MaxCameraConfigs == 0 {
		o.MaxCameraConfigs = 1
	}
	if o.MaxImages < 0 || o.MaxImages > maxOrientations {
		return errors.New(errors.ErrCodeInvalidConfig, "max images must be in [1, %d], got %d", maxOrientations, o.MaxImages)
	}
	if o.MaxCameraConfigs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max camera configs must be positive, got %d", o.MaxCameraConfigs)
	}
	if o.Ranges == (camera.Ranges{}) {
		o.Ranges = camera.DefaultRanges()
	}
	if o.Sweep == "" {
		o.Sweep = SweepNone
	}
	if _, err := ParseSweep(string(o.Sweep)); err != nil {
		return err
	}
	if o.Shard == (Shard{}) {
		o.Shard = Shard{Index: 0, Count: 1}
	}
	if err := o.Shard.validate(); err != nil {
		return err
	}
	if o.Offset < 0 || o.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "offset and limit must not be negative")
	}

	if len(o.Relations) == 0 {
		o.Relations = slices.Clone(scene.Relations)
	}
	seen := make(map[scene.Relation]bool, 4)
	rels := o.Relations[:0:0]
	for _, r := range o.Relations {
		if !r.Valid() {
			return errors.New(errors.ErrCodeInvalidConfig, "invalid relation %d", int(r))
		}
		if !seen[r] {
			seen[r] = true
			rels = append(rels, r)
		}
	}
	o.Relations = rels
	return nil
}

func dedupe(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func (e *Enumerator) orientationCount(p pair) int {
	switch {
	case e.opts.Random:
		return e.opts.MaxImages
	case e.opts.Sweep == SweepQuarterTurns:
		return min(e.opts.MaxImages, len(turns(p.a))*len(turns(p.b)))
	}
	return 1
}

// Total returns the size of the full space, ignoring shard, offset and limit.
func (e *Enumerator) Total() int { return e.total }

// Len returns how many combinations this enumerator yields in total.
func (e *Enumerator) Len() int {
	sh := e.opts.Shard
	n := 0
	if e.total > sh.Index {
		n = (e.total-sh.Index-1)/sh.Count + 1
	}
	n = max(n-e.opts.Offset, 0)
	if e.opts.Limit > 0 {
		n = min(n, e.opts.Limit)
	}
	return n
}

// Pairs returns the number of object pairs.
func (e *Enumerator) Pairs() int { return len(e.pairs) }

// PairSize describes the share of one object pair in the full space.
type PairSize struct {
	Object1      string
	Object2      string
	Orientations int // Per relation
	Combinations int
}

// Sizes returns the per-pair breakdown of Total in enumeration order.
func (e *Enumerator) Sizes() []PairSize {
	out := make([]PairSize, len(e.pairs))
	for i, p := range e.pairs {
		out[i] = PairSize{
			Object1:      p.a.ID,
			Object2:      p.b.ID,
			Orientations: p.m,
			Combinations: p.m * len(e.relations) * len(e.cameras),
		}
	}
	return out
}

// Cameras returns the camera configs shared by every combination.
func (e *Enumerator) Cameras() []scene.CameraConfig { return slices.Clone(e.cameras) }

// Next returns the next combination, or false when the enumeration is
// exhausted.
func (e *Enumerator) Next() (scene.Combination, bool) {
	if e.done {
		return scene.Combination{}, false
	}
	if e.opts.Limit > 0 && e.emitted >= e.opts.Limit {
		e.finish()
		return scene.Combination{}, false
	}
	ordinal := e.opts.Shard.Index + (e.opts.Offset+e.next)*e.opts.Shard.Count
	if ordinal >= e.total {
		e.finish()
		return scene.Combination{}, false
	}
	e.next++
	e.emitted++
	return e.decode(ordinal), true
}

func (e *Enumerator) finish() {
	e.done = true
	e.bucket = nil
}

// All returns an iterator that drains the enumerator.
func (e *Enumerator) All() iter.Seq[scene.Combination] {
	return func(yield func(scene.Combination) bool) {
		for {
			c, ok := e.Next()
			if !ok || !yield(c) {
				return
			}
		}
	}
}

// decode maps an ordinal to its combination. Pairs are outermost, then
// relations, orientations and cameras.
func (e *Enumerator) decode(ordinal int) scene.Combination {
	pi := sort.Search(len(e.pairs), func(i int) bool { return e.pairs[i].offset > ordinal }) - 1
	p := e.pairs[pi]
	local := ordinal - p.offset

	n := len(e.cameras)
	ci := local % n
	local /= n
	oi := local % p.m
	ri := local / p.m

	rel := e.relations[ri]
	o := e.orientations(pi, ri)[oi]
	return scene.Combination{
		Index:       ordinal,
		Object1:     p.a.ID,
		Object2:     p.b.ID,
		Relation:    rel,
		Rotation1:   o.rot1,
		Rotation2:   o.rot2,
		CameraIndex: ci,
		Camera:      e.cameras[ci],
	}
}

// orientations returns the orientation list of a bucket, reusing the
// previous list when the bucket did not change.
func (e *Enumerator) orientations(pi, ri int) []orientation {
	if e.bucket != nil && e.bucketPair == pi && e.bucketRel == ri {
		return e.bucket
	}
	p := e.pairs[pi]
	switch {
	case e.opts.Random:
		e.bucket = randomOrientations(p.m, bucketSeed(e.opts.Seed, p.a.ID, p.b.ID, e.relations[ri]))
	case e.opts.Sweep == SweepQuarterTurns:
		e.bucket = quarterTurns(p)
	default:
		e.bucket = []orientation{{scene.NormalizeYaw(e.opts.Rotation1), scene.NormalizeYaw(e.opts.Rotation2)}}
	}
	e.bucketPair, e.bucketRel = pi, ri
	return e.bucket
}

func turns(a catalog.Asset) []float64 {
	if a.Oriented() {
		return []float64{0, 90, 180, 270}
	}
	return []float64{0}
}

func quarterTurns(p pair) []orientation {
	out := make([]orientation, 0, p.m)
	for _, r1 := range turns(p.a) {
		for _, r2 := range turns(p.b) {
			if len(out) == p.m {
				return out
			}
			out = append(out, orientation{r1, r2})
		}
	}
	return out
}

// randomOrientations draws m distinct rotation pairs with a partial
// Fisher-Yates shuffle over the 360x360 grid, tracking only swapped slots.
func randomOrientations(m int, seed uint64) []orientation {
	rng := rand.New(rand.NewPCG(seed, 0x6f7269656e74))
	swapped := make(map[int]int, m)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	out := make([]orientation, m)
	for i := range out {
		j := i + rng.IntN(maxOrientations-i)
		vi, vj := at(i), at(j)
		swapped[j] = vi
		out[i] = orientation{float64(vj / 360), float64(vj % 360)}
	}
	return out
}

func bucketSeed(seed uint64, a, b string, rel scene.Relation) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", a, b, rel)
	return seed ^ h.Sum64()
}

// Single builds the one combination of a single-image run. Object order is
// kept as given.
func Single(cat *catalog.Catalog, object1, object2 string, rel scene.Relation, rot1, rot2 float64, cam scene.CameraConfig) (scene.Combination, error) {
	for _, id := range []string{object1, object2} {
		if _, err := cat.Resolve(id); err != nil {
			return scene.Combination{}, err
		}
	}
	if object1 == object2 {
		return scene.Combination{}, errors.New(errors.ErrCodeInvalidConfig, "object1 and object2 must differ, both are %q", object1)
	}
	if !rel.Valid() {
		return scene.Combination{}, errors.New(errors.ErrCodeInvalidConfig, "invalid relation %d", int(rel))
	}
	return scene.Combination{
		Object1:   object1,
		Object2:   object2,
		Relation:  rel,
		Rotation1: scene.NormalizeYaw(rot1),
		Rotation2: scene.NormalizeYaw(rot2),
		Camera:    cam,
	}, nil
}
