package schematic

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/golang/geo/r3"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

func objects() []render.Object {
	return []render.Object{
		{
			Asset:     catalog.Asset{ID: "shoe", DefaultOrientation: "front"},
			Placement: scene.Placement{AssetID: "shoe", Yaw: 180, Radius: 0.2},
		},
		{
			Asset:     catalog.Asset{ID: "puma"},
			Placement: scene.Placement{AssetID: "puma", Position: r3.Vector{X: -3.5}, Radius: 0.9},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(objects(), scene.CameraConfig{Tilt: 90, Pan: 0, Height: 1, FocalLength: 50})

	for _, want := range []string{
		`"shoe" [label="shoe\nfaces behind", width=0.4000, pos="0.0000,0.0000!"`,
		`"puma" [label="puma", width=1.8000, pos="-3.5000,0.0000!"`,
		`"camera" -- "target"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// An unpanned camera looks toward +Y, so it stands on the -Y side.
	if !strings.Contains(dot, `pos="-1.7500,-3.6500!"`) {
		t.Errorf("camera marker misplaced:\n%s", dot)
	}
}

func TestResizeKeepsCanvas(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 10))
	for x := 0; x < 40; x++ {
		for y := 0; y < 10; y++ {
			src.Set(x, y, color.Black)
		}
	}
	dst := resize(src, 64, 64)
	if dst.Bounds().Dx() != 64 || dst.Bounds().Dy() != 64 {
		t.Fatalf("size = %v", dst.Bounds())
	}
	if r, _, _, _ := dst.At(32, 2).RGBA(); r != 0xffff {
		t.Errorf("letterbox should be white, got %v", dst.At(32, 2))
	}
	if r, _, _, _ := dst.At(32, 32).RGBA(); r > 0x1000 {
		t.Errorf("content should be dark, got %v", dst.At(32, 32))
	}
}

func TestEncodeFormats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	var pngBuf bytes.Buffer
	if err := Encode(&pngBuf, img, render.FormatPNG); err != nil {
		t.Fatal(err)
	}
	if _, err := png.DecodeConfig(&pngBuf); err != nil {
		t.Errorf("png output unreadable: %v", err)
	}

	var webpBuf bytes.Buffer
	if err := Encode(&webpBuf, img, render.FormatWebP); err != nil {
		t.Fatal(err)
	}
	cfg, err := nativewebp.DecodeConfig(&webpBuf)
	if err != nil {
		t.Fatalf("webp output unreadable: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 8 {
		t.Errorf("webp size = %dx%d", cfg.Width, cfg.Height)
	}

	if err := Encode(&bytes.Buffer{}, img, "tiff"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestEngineRender(t *testing.T) {
	ctx := context.Background()
	e := New(render.Settings{Width: 128, Height: 96, Format: render.FormatPNG})
	defer e.Close()

	path := filepath.Join(t.TempDir(), "shoe_puma", "img_000000.png")
	err := render.NewScene(e).Render(ctx, render.Job{
		Objects: objects(),
		Camera:  scene.CameraConfig{Tilt: 90, Pan: 45, Height: 1, FocalLength: 50},
		Output:  path,
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 128 || cfg.Height != 96 {
		t.Errorf("image size = %dx%d, want 128x96", cfg.Width, cfg.Height)
	}
	if len(e.objects) != 0 || e.camera != nil {
		t.Error("engine not cleared after render")
	}
}

func TestEngineErrors(t *testing.T) {
	ctx := context.Background()
	e := New(render.Settings{Width: 32, Height: 32})

	if err := e.Render(ctx, filepath.Join(t.TempDir(), "x.png")); !errors.Is(err, errors.ErrCodeRenderEngine) {
		t.Errorf("render without camera: %v", err)
	}
	o := objects()[0]
	if err := e.Load(ctx, o.Asset, o.Placement); err != nil {
		t.Fatal(err)
	}
	if err := e.Load(ctx, o.Asset, o.Placement); !errors.Is(err, errors.ErrCodeRenderEngine) {
		t.Errorf("duplicate load: %v", err)
	}
}
