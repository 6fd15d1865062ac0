package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/spatialgen/pkg/cache"
	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/observability"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Stats summarises a batch.
type Stats struct {
	Total    int           `json:"total"`    // Combinations assigned to this run
	Rendered int           `json:"rendered"` // Newly rendered images
	Cached   int           `json:"cached"`   // Skipped because a previous run finished them
	Skipped  int           `json:"skipped"`  // Overlaps
	Failed   int           `json:"failed"`   // Engine or IO failures
	Duration time.Duration `json:"duration_ns"`
}

// BatchInfo is recorded in the manifest.
type BatchInfo struct {
	Seed  uint64
	Shard enumerate.Shard
}

// Manifest describes one batch run.
type Manifest struct {
	RunID       string    `json:"run_id"`
	Seed        uint64    `json:"seed"`
	Shard       string    `json:"shard"`
	Fingerprint string    `json:"fingerprint"`
	SpaceTotal  int       `json:"space_total"`
	Cameras     int       `json:"camera_configs"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Interrupted bool      `json:"interrupted,omitempty"`
	Stats       Stats     `json:"stats"`
}

// doneEntry is the completion record stored in the cache.
type doneEntry struct {
	Image string    `json:"image"`
	Scene string    `json:"scene"`
	At    time.Time `json:"at"`
}

// onDisk reports whether both files of a finished combination still exist.
func (e doneEntry) onDisk() bool {
	for _, p := range []string{e.Image, e.Scene} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// RunBatch renders every combination of enum. Per-combination failures
// are counted and logged; the returned error is set only when the batch
// had to stop early.
func (r *Runner) RunBatch(ctx context.Context, enum *enumerate.Enumerator, info BatchInfo) (Stats, error) {
	if err := r.Layout.Validate(); err != nil {
		return Stats{}, err
	}
	if info.Shard.Count == 0 {
		info.Shard = enumerate.Shard{Index: 0, Count: 1}
	}

	m := Manifest{
		RunID:       uuid.NewString(),
		Seed:        info.Seed,
		Shard:       info.Shard.String(),
		Fingerprint: r.fingerprint(),
		SpaceTotal:  enum.Total(),
		Cameras:     len(enum.Cameras()),
		StartedAt:   time.Now().UTC(),
	}
	stats := Stats{Total: enum.Len()}
	hooks := observability.Pipeline()
	hooks.OnBatchStart(ctx, m.RunID, stats.Total)
	r.Logger.Info("starting batch",
		"run", m.RunID,
		"combinations", stats.Total,
		"space", m.SpaceTotal,
		"shard", m.Shard,
		"seed", m.Seed)

	var stopErr error
	done := 0
	for c := range enum.All() {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		err := r.batchOne(ctx, c, m.Fingerprint, &stats)
		done++
		if r.Progress != nil {
			r.Progress(done, stats.Total, c, err)
		}
		if err != nil {
			stopErr = err
			break
		}
	}

	stats.Duration = time.Since(m.StartedAt)
	m.FinishedAt = time.Now().UTC()
	m.Interrupted = stopErr != nil
	m.Stats = stats
	if err := r.writeManifest(m, info.Shard); err != nil {
		r.Logger.Warn("could not write manifest", "error", err)
	}
	hooks.OnBatchComplete(ctx, m.RunID, stats.Rendered, stats.Skipped+stats.Cached, stats.Failed, stats.Duration)

	r.Logger.Info("batch finished",
		"rendered", stats.Rendered,
		"cached", stats.Cached,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", stats.Duration.Round(time.Millisecond))
	return stats, stopErr
}

// batchOne handles one combination and returns an error only when the
// batch must stop.
func (r *Runner) batchOne(ctx context.Context, c scene.Combination, fingerprint string, stats *Stats) error {
	hooks := observability.Pipeline()
	key := r.Keyer.DoneKey(fingerprint, c)

	if !r.Refresh {
		var entry doneEntry
		switch err := cache.GetJSON(ctx, r.Cache, key, &entry); {
		case err == nil && entry.onDisk():
			observability.Cache().OnCacheHit(ctx, "done")
			stats.Cached++
			hooks.OnCombinationSkipped(ctx, c.Index, c.Bucket(), "cached")
			return nil
		case err == nil:
			observability.Cache().OnCacheMiss(ctx, "done")
			r.Logger.Debug("completed output missing, rendering again", "index", c.Index, "image", entry.Image)
		case stderrors.Is(err, cache.ErrCacheMiss):
			observability.Cache().OnCacheMiss(ctx, "done")
		default:
			r.Logger.Warn("completion cache unavailable", "error", err)
		}
	}

	hooks.OnCombinationStart(ctx, c.Index, c.Bucket())
	start := time.Now()
	res, err := r.RenderOne(ctx, c)
	hooks.OnCombinationComplete(ctx, c.Index, c.Bucket(), time.Since(start), err)

	switch {
	case err == nil:
		stats.Rendered++
		entry := doneEntry{Image: res.ImagePath, Scene: res.ScenePath, At: time.Now().UTC()}
		if err := cache.SetJSON(ctx, r.Cache, key, entry, r.CacheTTL); err != nil {
			r.Logger.Warn("could not record completion", "index", c.Index, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "done", len(res.ImagePath)+len(res.ScenePath))
		}
		r.Logger.Debug("rendered", "index", c.Index, "image", res.ImagePath)
		return nil

	case ctx.Err() != nil:
		return ctx.Err()

	case stderrors.Is(err, render.ErrEngineFatal):
		stats.Failed++
		r.Logger.Error("render engine failed", "index", c.Index, "error", err)
		return err

	case errors.Is(err, errors.ErrCodeOverlap):
		stats.Skipped++
		hooks.OnCombinationSkipped(ctx, c.Index, c.Bucket(), "overlap")
		r.Logger.Warn("overlap, skipping", "index", c.Index, "bucket", c.Bucket(), "error", errors.UserMessage(err))
		return nil

	case errors.Recoverable(err):
		stats.Failed++
		hooks.OnCombinationSkipped(ctx, c.Index, c.Bucket(), string(errors.GetCode(err)))
		r.Logger.Error("combination failed, continuing", "index", c.Index, "bucket", c.Bucket(), "error", err)
		return nil
	}
	return err
}

func (r *Runner) writeManifest(m Manifest, shard enumerate.Shard) error {
	path := r.Layout.ManifestPath(shard.Index, shard.Count)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// fingerprint hashes every setting that changes an image or its record.
func (r *Runner) fingerprint() string {
	if r.Fingerprint != "" {
		return r.Fingerprint
	}
	return cache.SettingsHash(struct {
		Distance  float64
		PairScale bool
		Layout    Layout
		Captions  any
		Engine    EngineInfo
	}{r.Distance, r.PairScale, r.Layout, r.Captions, r.Engine})
}
