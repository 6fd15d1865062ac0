package schematic

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"
	"golang.org/x/image/draw"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Name is the registry name of the engine.
const Name = "schematic"

func init() {
	render.Register(Name, func(s render.Settings) (render.Engine, error) { return New(s), nil })
}

// Engine renders schematic diagrams.
type Engine struct {
	settings render.Settings
	logger   *log.Logger
	gv       *graphviz.Graphviz

	objects []render.Object
	camera  *scene.CameraConfig
}

// New returns an engine. Graphviz is initialised on first render.
func New(s render.Settings) *Engine {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{settings: s, logger: logger}
}

// Load implements render.Engine.
func (e *Engine) Load(_ context.Context, a catalog.Asset, p scene.Placement) error {
	for _, o := range e.objects {
		if o.Asset.ID == a.ID {
			return errors.New(errors.ErrCodeRenderEngine, "asset %q already loaded", a.ID)
		}
	}
	e.objects = append(e.objects, render.Object{Asset: a, Placement: p})
	return nil
}

// SetCamera implements render.Engine.
func (e *Engine) SetCamera(_ context.Context, cfg scene.CameraConfig) error {
	e.camera = &cfg
	return nil
}

// Render implements render.Engine.
func (e *Engine) Render(ctx context.Context, path string) error {
	if e.camera == nil {
		return errors.New(errors.ErrCodeRenderEngine, "camera not set")
	}
	if len(e.objects) == 0 {
		return errors.New(errors.ErrCodeRenderEngine, "nothing to render")
	}

	img, err := e.rasterize(ctx, ToDOT(e.objects, *e.camera))
	if err != nil {
		return err
	}
	out := resize(img, e.settings.Width, e.settings.Height)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, out, e.settings.Ext()); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "encode %s", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", path)
	}
	e.logger.Debug("rendered schematic", "path", path, "objects", len(e.objects))
	return nil
}

func (e *Engine) rasterize(ctx context.Context, dot string) (image.Image, error) {
	if e.gv == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderEngine, render.Fatal(err), "init graphviz")
		}
		e.gv = gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEngine, err, "parse DOT")
	}
	defer g.Close()

	img, err := e.gv.RenderImage(ctx, g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderEngine, err, "graphviz render")
	}
	return img, nil
}

// Clear implements render.Engine.
func (e *Engine) Clear(context.Context) error {
	e.objects = nil
	e.camera = nil
	return nil
}

// Close releases the Graphviz instance.
func (e *Engine) Close() error {
	if e.gv == nil {
		return nil
	}
	err := e.gv.Close()
	e.gv = nil
	return err
}

// resize fits img into a w x h white canvas, keeping its aspect ratio.
func resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	b := img.Bounds()
	if b.Empty() {
		return dst
	}
	scale := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	sw, sh := max(1, int(float64(b.Dx())*scale)), max(1, int(float64(b.Dy())*scale))
	x0, y0 := (w-sw)/2, (h-sh)/2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+sw, y0+sh), img, b, draw.Over, nil)
	return dst
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case render.FormatPNG:
		return png.Encode(w, img)
	case render.FormatWebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("unsupported format %q", format)
}

var _ render.Engine = (*Engine)(nil)
