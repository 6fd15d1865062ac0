package render

import (
	"context"
	"io"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Scene is the scoped owner of an engine.
type Scene struct {
	engine Engine
	busy   bool
}

// NewScene wraps e.
func NewScene(e Engine) *Scene {
	return &Scene{engine: e}
}

// Stage is the view of the engine handed to a [Scene.Use] callback. It
// cannot clear the scene; the scene does that itself.
type Stage struct {
	engine Engine
}

// Load adds an asset to the scene.
func (s Stage) Load(ctx context.Context, a catalog.Asset, p scene.Placement) error {
	return EngineError(s.engine.Load(ctx, a, p), "load %s", a.ID)
}

// SetCamera sets the camera.
func (s Stage) SetCamera(ctx context.Context, cfg scene.CameraConfig) error {
	return EngineError(s.engine.SetCamera(ctx, cfg), "set camera %s", cfg)
}

// Render writes the image.
func (s Stage) Render(ctx context.Context, path string) error {
	return EngineError(s.engine.Render(ctx, path), "render %s", path)
}

// Use resets the engine, runs fn and resets the engine again. The final
// reset runs even when fn fails or panics. A failed reset is fatal because
// the next image would inherit stale objects.
func (s *Scene) Use(ctx context.Context, fn func(Stage) error) (err error) {
	if s.busy {
		return errors.New(errors.ErrCodeInternal, "scene already in use")
	}
	s.busy = true
	defer func() { s.busy = false }()

	if err := s.engine.Clear(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeRenderEngine, Fatal(err), "reset scene")
	}
	defer func() {
		if cerr := s.engine.Clear(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeRenderEngine, Fatal(cerr), "reset scene")
		}
	}()
	return fn(Stage{engine: s.engine})
}

// Object is an asset with its transform.
type Object struct {
	Asset     catalog.Asset
	Placement scene.Placement
}

// Job is everything needed for one image.
type Job struct {
	Objects []Object
	Camera  scene.CameraConfig
	Output  string
}

// Render composes job in a fresh scene.
func (s *Scene) Render(ctx context.Context, job Job) error {
	return s.Use(ctx, func(st Stage) error {
		for _, o := range job.Objects {
			if err := st.Load(ctx, o.Asset, o.Placement); err != nil {
				return err
			}
		}
		if err := st.SetCamera(ctx, job.Camera); err != nil {
			return err
		}
		return st.Render(ctx, job.Output)
	})
}

// Close closes the engine if it holds resources.
func (s *Scene) Close() error {
	if c, ok := s.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
