package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/metadata"
)

const properties = `{
  "shoe": {"file": "shoe.blend", "group": "small", "default_orientation": "front",
           "footprint": {"width": 0.3, "depth": 0.12, "height": 0.1}},
  "puma": {"file": "puma.blend", "group": "large", "default_orientation": "left",
           "footprint": {"radius": 0.9, "height": 0.8}},
  "mug":  {"file": "mug.blend", "group": "small",
           "footprint": {"radius": 0.05, "height": 0.1}}
}`

// workspace writes a catalog and a config using a shell script as the
// render engine, and returns the config path and the output root.
func workspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	props := filepath.Join(dir, "properties.json")
	if err := os.WriteFile(props, []byte(properties), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	cfg := fmt.Sprintf(`
[paths]
shape_dir = %q
properties = %q
output_image_dir = %q
output_scene_dir = %q

[render]
engine = "command"
command = "sh"
args = ["-c", "printf img > \"$1\"", "sh", "{output}"]
width = 64
height = 64

[cache]
backend = "file"
dir = %q
`, dir, props, filepath.Join(out, "images"), filepath.Join(out, "scenes"), filepath.Join(dir, "cache"))
	path := filepath.Join(dir, "spatialgen.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, out
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	defer c.Close()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRenderCommand(t *testing.T) {
	cfg, out := workspace(t)
	err := execute(t, "--config", cfg, "render",
		"--objects", "shoe,puma", "--direction", "left",
		"--object1-rotation", "180", "--object2-rotation", "90",
		"--camera-pan", "0", "--index", "7")
	if err != nil {
		t.Fatal(err)
	}

	img := filepath.Join(out, "images", "shoe_puma", "shoe_puma_left", "spatial_000007.png")
	if _, err := os.Stat(img); err != nil {
		t.Errorf("image not written: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "scenes", "shoe_puma", "shoe_puma_left", "spatial_000007.json"))
	if err != nil {
		t.Fatal(err)
	}
	rec, err := metadata.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Relation != "left" || rec.RelativePerspective.Relation != "left" || rec.Camera.Pan != 0 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Distance != 3 {
		t.Errorf("distance = %v, want the default 3", rec.Distance)
	}
}

func TestRenderDefaultCameraIsDiagonal(t *testing.T) {
	cfg, out := workspace(t)
	if err := execute(t, "--config", cfg, "render", "--objects", "shoe,puma", "--direction", "left"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(out, "scenes", "shoe_puma", "shoe_puma_left", "spatial_000000.json"))
	if err != nil {
		t.Fatal(err)
	}
	rec, err := metadata.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	view := rec.RelativePerspective
	if rec.Camera.Pan != 45 || !view.Ambiguous || view.Relation != "left" || view.Alternative != "behind" {
		t.Errorf("pan=%v perspective=%+v, want a diagonal left/behind view", rec.Camera.Pan, view)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	cfg, _ := workspace(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no objects", nil, errors.ErrCodeInvalidConfig},
		{"no direction", []string{"--objects", "shoe,puma"}, errors.ErrCodeInvalidConfig},
		{"one object", []string{"--objects", "shoe", "--direction", "left"}, errors.ErrCodeInvalidConfig},
		{"same object", []string{"--objects", "shoe,shoe", "--direction", "left"}, errors.ErrCodeInvalidConfig},
		{"unknown object", []string{"--objects", "shoe,yeti", "--direction", "left"}, errors.ErrCodeUnknownAsset},
		{"bad direction", []string{"--objects", "shoe,puma", "--direction", "above"}, errors.ErrCodeInvalidConfig},
		{"bad engine", []string{"--objects", "shoe,puma", "--direction", "left", "--engine", "cycles"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, append([]string{"--config", cfg, "render"}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
			if ExitCode(err) != 1 {
				t.Errorf("exit code = %d, want 1", ExitCode(err))
			}
		})
	}
}

func TestBatchCommandResumes(t *testing.T) {
	cfg, out := workspace(t)
	args := []string{"--config", cfg, "batch", "--objects", "shoe,puma,mug", "--seed", "42",
		"--render-random", "--max-images", "2", "--max-camera-configs", "2"}
	if err := execute(t, args...); err != nil {
		t.Fatal(err)
	}

	count := func() int {
		n := 0
		filepath.WalkDir(filepath.Join(out, "scenes"), func(path string, d os.DirEntry, err error) error {
			if err == nil && !d.IsDir() && !strings.HasPrefix(d.Name(), "manifest") {
				n++
			}
			return nil
		})
		return n
	}
	// 3 pairs x 4 relations x 2 orientations x 2 cameras.
	if n := count(); n != 48 {
		t.Fatalf("%d records, want 48", n)
	}

	before, _ := os.ReadFile(filepath.Join(out, "scenes", "manifest.json"))
	if err := execute(t, args...); err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(filepath.Join(out, "scenes", "manifest.json"))
	if !strings.Contains(string(after), `"cached": 48`) {
		t.Errorf("second run should be fully cached:\n%s", after)
	}
	if string(before) == string(after) {
		t.Error("manifest not rewritten")
	}

	if err := execute(t, "--config", cfg, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, append(args, "--shard", "1/2")...); err != nil {
		t.Fatal(err)
	}
	shard, err := os.ReadFile(filepath.Join(out, "scenes", "manifest-1-of-2.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(shard), `"rendered": 24`) {
		t.Errorf("shard manifest:\n%s", shard)
	}
}

func TestPlanAndCatalogCommands(t *testing.T) {
	cfg, out := workspace(t)
	for _, args := range [][]string{
		{"plan", "--objects", "shoe,puma,mug", "--max-images", "3", "--sweep", "quarter-turns"},
		{"plan", "--render-random", "--max-camera-configs", "4", "--seed", "1", "--list", "--limit", "5"},
		{"catalog", "list"},
		{"cache", "path"},
	} {
		if err := execute(t, append([]string{"--config", cfg}, args...)...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("plan must not write output")
	}
}

func TestConfigObjects(t *testing.T) {
	cfg, out := workspace(t)
	data, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	withObjects := func(ids string) {
		t.Helper()
		body := string(data) + "\n[scene]\nobjects = [" + ids + "]\n"
		if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	withObjects(`"shoe", "yeti"`)
	if err := execute(t, "--config", cfg, "plan"); !errors.Is(err, errors.ErrCodeCatalog) || !strings.Contains(err.Error(), "yeti") {
		t.Errorf("unknown configured object: %v, want CATALOG naming yeti", err)
	}

	withObjects(`"shoe", "puma"`)
	if err := execute(t, "--config", cfg, "batch", "--seed", "1"); err != nil {
		t.Fatal(err)
	}
	// One pair, four relations, one orientation and one camera.
	n := 0
	_ = filepath.WalkDir(filepath.Join(out, "scenes"), func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasPrefix(filepath.Base(filepath.Dir(path)), "puma_shoe_") {
			n++
		}
		return nil
	})
	if n != 4 {
		t.Errorf("%d puma_shoe records, want 4", n)
	}
}

func TestConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[render]\nengine = \"cycles\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := execute(t, "--config", path, "catalog", "list")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{context.Canceled, 130},
		{fmt.Errorf("batch: %w", context.Canceled), 130},
		{errors.New(errors.ErrCodeIO, "disk full"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := errors.New(errors.ErrCodeUnknownAsset, "unknown asset %q", "yeti")
	if got, want := ErrorMessage(err), `UNKNOWN_ASSET: unknown asset "yeti"`; got != want {
		t.Errorf("ErrorMessage() = %q, want %q", got, want)
	}
	if got := ErrorMessage(io.EOF); got != "EOF" {
		t.Errorf("ErrorMessage(io.EOF) = %q", got)
	}
}
