package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spatialgen/pkg/cache"
	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/metadata"
	"github.com/matzehuels/spatialgen/pkg/placement"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Runner renders combinations one at a time. It owns a single render
// scene and is not safe for concurrent use; run shards as processes.
type Runner struct {
	Catalog *catalog.Catalog
	Scene   *render.Scene
	Sink    metadata.Sink
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Layout  Layout

	Distance  float64           // Gap between the footprints in metres
	PairScale bool              // Apply the size-group pair scale factor
	Captions  metadata.Captions // Caption template overrides
	Engine    EngineInfo        // Renderer identity, part of the fingerprint

	// Fingerprint identifies the render settings in completion keys. When
	// empty it is derived from the runner's own settings.
	Fingerprint string
	Refresh     bool          // Ignore completion entries
	CacheTTL    time.Duration // Lifetime of completion entries; 0 keeps them
	RetryDelay  time.Duration

	// Progress, if set, is called after every combination of a batch.
	Progress func(done, total int, c scene.Combination, err error)
}

// NewRunner creates a runner with file metadata output.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (resuming disabled).
func NewRunner(cat *catalog.Catalog, engine render.Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Catalog:    cat,
		Scene:      render.NewScene(engine),
		Sink:       metadata.FileSink{},
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		Distance:   DefaultDistance,
		PairScale:  true,
		RetryDelay: DefaultRetryDelay,
	}
}

// EngineInfo names the engine and the output settings an image depends
// on. Changing any of them invalidates earlier completion entries.
type EngineInfo struct {
	Name    string   `json:"name"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Format  string   `json:"format"`
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// Result describes one finished image.
type Result struct {
	Combination scene.Combination
	ImagePath   string
	ScenePath   string
	Record      metadata.Record
}

// RunSingle renders one combination and returns any error unchanged.
func (r *Runner) RunSingle(ctx context.Context, c scene.Combination) (Result, error) {
	if err := r.Layout.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	res, err := r.RenderOne(ctx, c)
	if err != nil {
		return Result{}, err
	}
	r.Logger.Info("rendered image",
		"image", res.ImagePath,
		"relation", c.Relation,
		"perceived", res.Record.RelativePerspective.Relation,
		"duration", time.Since(start))
	return res, nil
}

// RenderOne places, renders and records one combination.
func (r *Runner) RenderOne(ctx context.Context, c scene.Combination) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid combination")
	}
	a1, err := r.Catalog.Resolve(c.Object1)
	if err != nil {
		return Result{}, err
	}
	a2, err := r.Catalog.Resolve(c.Object2)
	if err != nil {
		return Result{}, err
	}

	p1, p2, err := placement.Place(a1, a2, c.Relation, r.Distance, c.Rotation1, c.Rotation2,
		placement.WithPairScale(r.PairScale))
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Combination: c,
		ImagePath:   r.Layout.ImagePath(c),
		ScenePath:   r.Layout.ScenePath(c),
	}
	job := render.Job{
		Objects: []render.Object{{Asset: a1, Placement: p1}, {Asset: a2, Placement: p2}},
		Camera:  c.Camera,
		Output:  res.ImagePath,
	}
	if err := r.retryIO(ctx, func() error { return r.Scene.Render(ctx, job) }); err != nil {
		r.discard(res.ImagePath)
		return Result{}, err
	}

	res.Record = metadata.Describe(c, p1, p2, c.Camera, metadata.Options{
		ImageFilename: filepath.Base(res.ImagePath),
		Distance:      r.Distance,
		Catalog:       r.Catalog,
		Captions:      r.Captions,
	})
	if err := r.retryIO(ctx, func() error { return r.Sink.Write(ctx, res.ScenePath, res.Record) }); err != nil {
		// An image without metadata is not a dataset entry.
		r.discard(res.ImagePath)
		return Result{}, err
	}
	return res, nil
}

// retryIO runs fn and retries it once when it fails with an IO error.
func (r *Runner) retryIO(ctx context.Context, fn func() error) error {
	return cache.RetryWithBackoff(ctx, ioAttempts, r.RetryDelay, func() error {
		err := fn()
		if errors.Is(err, errors.ErrCodeIO) {
			r.Logger.Debug("retrying after IO error", "error", err)
			return cache.Retryable(err)
		}
		return err
	})
}

func (r *Runner) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.Logger.Warn("could not remove partial image", "path", path, "error", err)
	}
}

// Close releases the render engine.
func (r *Runner) Close() error {
	return r.Scene.Close()
}
