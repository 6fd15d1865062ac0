package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/spatialgen/pkg/cache"
	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/metadata"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// fakeEngine writes a placeholder file for every render.
type fakeEngine struct {
	loaded  int
	renders int
	clears  int
	fail    func(path string) error
}

func (f *fakeEngine) Load(context.Context, catalog.Asset, scene.Placement) error {
	f.loaded++
	return nil
}

func (f *fakeEngine) SetCamera(context.Context, scene.CameraConfig) error { return nil }

func (f *fakeEngine) Render(_ context.Context, path string) error {
	f.renders++
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		return err
	}
	if f.fail != nil {
		return f.fail(path)
	}
	return nil
}

func (f *fakeEngine) Clear(context.Context) error {
	f.clears++
	f.loaded = 0
	return nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		catalog.Asset{ID: "lamp", Group: catalog.GroupMedium, Footprint: catalog.Footprint{Radius: 0.25, Height: 1.2}},
		catalog.Asset{ID: "mug", Group: catalog.GroupSmall, DefaultOrientation: "right", Footprint: catalog.Footprint{Width: 0.1, Depth: 0.08, Height: 0.1}},
		catalog.Asset{ID: "table", Group: catalog.GroupLarge, Footprint: catalog.Footprint{Width: 1.6, Depth: 0.9, Height: 0.75}},
		catalog.Asset{ID: "shoe", Group: catalog.GroupSmall, DefaultOrientation: "front", Footprint: catalog.Footprint{Width: 0.3, Depth: 0.12, Height: 0.1}},
		catalog.Asset{ID: "puma", Group: catalog.GroupLarge, DefaultOrientation: "left", Footprint: catalog.Footprint{Radius: 0.9, Height: 0.8}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func newTestRunner(t *testing.T, e render.Engine, c cache.Cache) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	r := NewRunner(testCatalog(t), e, c, nil, log.New(io.Discard))
	r.Layout = Layout{
		ImageRoot: filepath.Join(dir, "images"),
		SceneRoot: filepath.Join(dir, "scenes"),
		Prefix:    "spatial",
		Ext:       "png",
	}
	r.RetryDelay = 0
	return r, dir
}

func countFiles(t *testing.T, root, ext string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ext) && !strings.HasPrefix(d.Name(), "manifest") {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return n
}

func scenarioEnum(t *testing.T, cat *catalog.Catalog) *enumerate.Enumerator {
	t.Helper()
	e, err := enumerate.New(cat, enumerate.Options{
		Objects:          []string{"table", "mug", "lamp"},
		MaxImages:        5,
		MaxCameraConfigs: 4,
		Random:           true,
		Seed:             42,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestRunBatchScenario(t *testing.T) {
	engine := &fakeEngine{}
	r, dir := newTestRunner(t, engine, nil)

	stats, err := r.RunBatch(context.Background(), scenarioEnum(t, r.Catalog), BatchInfo{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 240 || stats.Rendered != 240 {
		t.Errorf("stats = %+v, want 240 rendered", stats)
	}
	if n := countFiles(t, filepath.Join(dir, "images"), ".png"); n != 240 {
		t.Errorf("%d images, want 240", n)
	}
	if n := countFiles(t, filepath.Join(dir, "scenes"), ".json"); n != 240 {
		t.Errorf("%d metadata files, want 240", n)
	}
	if engine.clears != 2*engine.renders {
		t.Errorf("clears = %d for %d renders", engine.clears, engine.renders)
	}

	// Every bucket directory of the three pairs exists.
	for _, pair := range []string{"lamp_mug", "lamp_table", "mug_table"} {
		for _, rel := range scene.Relations {
			p := filepath.Join(dir, "images", pair, pair+"_"+rel.String())
			if _, err := os.Stat(p); err != nil {
				t.Errorf("missing bucket %s", p)
			}
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "scenes", "manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Errorf("run id %q: %v", m.RunID, err)
	}
	if m.Seed != 42 || m.Stats.Rendered != 240 || m.SpaceTotal != 240 || m.Cameras != 4 {
		t.Errorf("manifest = %+v", m)
	}
}

func TestRunSingleShoePuma(t *testing.T) {
	r, _ := newTestRunner(t, &fakeEngine{}, nil)
	cam := scene.CameraConfig{Tilt: 90, Pan: 45, Height: 1, FocalLength: 50}
	c, err := enumerate.Single(r.Catalog, "shoe", "puma", scene.Left, 180, 90, cam)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.RunSingle(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(r.Layout.ImageRoot, "shoe_puma", "shoe_puma_left", "spatial_000000.png")
	if res.ImagePath != want {
		t.Errorf("image path = %s, want %s", res.ImagePath, want)
	}

	data, err := os.ReadFile(res.ScenePath)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := metadata.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Relation != "left" || rec.Object1Rotation != 180 || rec.Object2Rotation != 90 || rec.Distance != 3 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Object2Position[0] >= 0 {
		t.Errorf("puma should be on -X: %v", rec.Object2Position)
	}
	if rec.ImageFilename != "spatial_000000.png" {
		t.Errorf("image filename = %s", rec.ImageFilename)
	}
}

func TestRunSingleSurfacesErrors(t *testing.T) {
	engine := &fakeEngine{fail: func(string) error { return os.ErrDeadlineExceeded }}
	r, _ := newTestRunner(t, engine, nil)
	c, _ := enumerate.Single(r.Catalog, "mug", "lamp", scene.Front, 0, 0, scene.CameraConfig{Tilt: 90, Height: 1, FocalLength: 50})

	_, err := r.RunSingle(context.Background(), c)
	if !errors.Is(err, errors.ErrCodeRenderEngine) {
		t.Errorf("error = %v, want RENDER_ENGINE", err)
	}
	if _, statErr := os.Stat(r.Layout.ImagePath(c)); !os.IsNotExist(statErr) {
		t.Error("failed image left on disk")
	}
	if engine.clears != 2 {
		t.Errorf("clears = %d, want 2", engine.clears)
	}
}

func TestRunBatchContinuesAfterFailures(t *testing.T) {
	engine := &fakeEngine{fail: func(path string) error {
		switch {
		case strings.Contains(path, "_front"):
			return errors.New(errors.ErrCodeOverlap, "objects overlap on screen")
		case strings.Contains(path, "_behind"):
			return os.ErrClosed
		}
		return nil
	}}
	r, dir := newTestRunner(t, engine, nil)
	enum, err := enumerate.New(r.Catalog, enumerate.Options{Objects: []string{"mug", "lamp"}})
	if err != nil {
		t.Fatal(err)
	}

	stats, err := r.RunBatch(context.Background(), enum, BatchInfo{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rendered != 2 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 rendered, 1 skipped, 1 failed", stats)
	}
	if n := countFiles(t, filepath.Join(dir, "images"), ".png"); n != 2 {
		t.Errorf("%d images on disk, want 2", n)
	}
	if engine.clears != 2*engine.renders {
		t.Errorf("scene not reset after every image: clears=%d renders=%d", engine.clears, engine.renders)
	}
}

func TestRunBatchStopsOnFatalEngine(t *testing.T) {
	engine := &fakeEngine{fail: func(string) error { return render.Fatal(os.ErrProcessDone) }}
	r, _ := newTestRunner(t, engine, nil)
	enum, _ := enumerate.New(r.Catalog, enumerate.Options{Objects: []string{"mug", "lamp"}})

	stats, err := r.RunBatch(context.Background(), enum, BatchInfo{})
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if engine.renders != 1 || stats.Failed != 1 {
		t.Errorf("renders=%d stats=%+v, want stop after first", engine.renders, stats)
	}
}

type flakySink struct {
	failures int
	calls    int
}

func (s *flakySink) Write(ctx context.Context, path string, rec metadata.Record) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New(errors.ErrCodeIO, "disk hiccup")
	}
	return metadata.FileSink{}.Write(ctx, path, rec)
}

func TestIORetriedOnce(t *testing.T) {
	c := scene.Combination{Object1: "lamp", Object2: "mug", Relation: scene.Right, Camera: scene.CameraConfig{Tilt: 90, Height: 1, FocalLength: 50}}

	r, _ := newTestRunner(t, &fakeEngine{}, nil)
	sink := &flakySink{failures: 1}
	r.Sink = sink
	if _, err := r.RenderOne(context.Background(), c); err != nil {
		t.Errorf("one IO failure should be retried: %v", err)
	}
	if sink.calls != 2 {
		t.Errorf("sink calls = %d, want 2", sink.calls)
	}

	r, _ = newTestRunner(t, &fakeEngine{}, nil)
	sink = &flakySink{failures: 5}
	r.Sink = sink
	_, err := r.RenderOne(context.Background(), c)
	if !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("error = %v, want IO", err)
	}
	if sink.calls != 2 {
		t.Errorf("sink calls = %d, want 2", sink.calls)
	}
	if _, statErr := os.Stat(r.Layout.ImagePath(c)); !os.IsNotExist(statErr) {
		t.Error("image without metadata left on disk")
	}
}

func TestRunBatchResumes(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	engine := &fakeEngine{}
	r, _ := newTestRunner(t, engine, fc)
	opts := enumerate.Options{Objects: []string{"mug", "lamp", "table"}, MaxImages: 2, Random: true, Seed: 9}

	enum, _ := enumerate.New(r.Catalog, opts)
	first, err := r.RunBatch(context.Background(), enum, BatchInfo{Seed: 9})
	if err != nil {
		t.Fatal(err)
	}

	enum, _ = enumerate.New(r.Catalog, opts)
	second, err := r.RunBatch(context.Background(), enum, BatchInfo{Seed: 9})
	if err != nil {
		t.Fatal(err)
	}
	if second.Cached != first.Rendered || second.Rendered != 0 {
		t.Errorf("second run = %+v, want everything cached", second)
	}
	if engine.renders != first.Rendered {
		t.Errorf("engine rendered %d times, want %d", engine.renders, first.Rendered)
	}

	r.Refresh = true
	enum, _ = enumerate.New(r.Catalog, opts)
	third, _ := r.RunBatch(context.Background(), enum, BatchInfo{Seed: 9})
	if third.Rendered != first.Rendered {
		t.Errorf("refresh run = %+v", third)
	}
}

func TestRunBatchRerendersMissingOutput(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	engine := &fakeEngine{}
	r, _ := newTestRunner(t, engine, fc)
	opts := enumerate.Options{Objects: []string{"mug", "lamp", "table"}}

	enum, _ := enumerate.New(r.Catalog, opts)
	first, err := r.RunBatch(context.Background(), enum, BatchInfo{})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(r.Layout.ImageRoot); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(r.Layout.SceneRoot); err != nil {
		t.Fatal(err)
	}

	enum, _ = enumerate.New(r.Catalog, opts)
	second, err := r.RunBatch(context.Background(), enum, BatchInfo{})
	if err != nil {
		t.Fatal(err)
	}
	if second.Rendered != first.Rendered || second.Cached != 0 {
		t.Errorf("after removing the output: %+v, want %d rendered", second, first.Rendered)
	}
	if n := countFiles(t, r.Layout.ImageRoot, ".png"); n != first.Rendered {
		t.Errorf("%d images on disk, want %d", n, first.Rendered)
	}
}

func TestRunBatchEngineChangeInvalidates(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := enumerate.Options{Objects: []string{"mug", "lamp"}}
	r, _ := newTestRunner(t, &fakeEngine{}, fc)
	r.Engine = EngineInfo{Name: "schematic", Width: 512, Height: 512, Format: "png"}
	enum, _ := enumerate.New(r.Catalog, opts)
	first, err := r.RunBatch(context.Background(), enum, BatchInfo{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		engine EngineInfo
	}{
		{"engine", EngineInfo{Name: "command", Width: 512, Height: 512, Format: "png", Command: "blender"}},
		{"resolution", EngineInfo{Name: "schematic", Width: 1024, Height: 1024, Format: "png"}},
		{"format", EngineInfo{Name: "schematic", Width: 512, Height: 512, Format: "webp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			next := NewRunner(r.Catalog, engine, fc, nil, log.New(io.Discard))
			next.Layout = r.Layout
			next.RetryDelay = 0
			next.Engine = tt.engine
			enum, _ := enumerate.New(r.Catalog, opts)
			got, err := next.RunBatch(context.Background(), enum, BatchInfo{})
			if err != nil {
				t.Fatal(err)
			}
			if got.Cached != 0 || engine.renders != first.Rendered {
				t.Errorf("stats = %+v, engine renders = %d, want %d fresh renders", got, engine.renders, first.Rendered)
			}
		})
	}
}

func TestRunBatchCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &fakeEngine{}
	engine.fail = func(string) error {
		if engine.renders == 3 {
			cancel()
		}
		return nil
	}
	r, dir := newTestRunner(t, engine, nil)
	enum, _ := enumerate.New(r.Catalog, enumerate.Options{Objects: []string{"mug", "lamp", "table"}})

	stats, err := r.RunBatch(ctx, enum, BatchInfo{})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if stats.Rendered != 3 {
		t.Errorf("rendered = %d, want 3", stats.Rendered)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "scenes", "manifest.json"))
	if !strings.Contains(string(data), `"interrupted": true`) {
		t.Errorf("manifest not marked interrupted:\n%s", data)
	}
}

func TestLayout(t *testing.T) {
	l := Layout{ImageRoot: "img", SceneRoot: "sc", Prefix: "p", Ext: "webp"}
	c := scene.Combination{Index: 12, Object1: "a", Object2: "b", Relation: scene.Behind}
	if got, want := l.ImagePath(c), filepath.Join("img", "a_b", "a_b_behind", "p_000012.webp"); got != want {
		t.Errorf("ImagePath = %s, want %s", got, want)
	}
	if got, want := l.ScenePath(c), filepath.Join("sc", "a_b", "a_b_behind", "p_000012.json"); got != want {
		t.Errorf("ScenePath = %s, want %s", got, want)
	}
	if got := l.ManifestPath(1, 4); filepath.Base(got) != "manifest-1-of-4.json" {
		t.Errorf("ManifestPath = %s", got)
	}
	if err := (Layout{ImageRoot: "i", SceneRoot: "s", Prefix: "../x", Ext: "png"}).Validate(); err == nil {
		t.Error("path traversal in prefix should be rejected")
	}
}
