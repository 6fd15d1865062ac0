// Package command renders scenes with an external program.
//
// For every image the engine writes a JSON job next to the output and runs
// the configured command, for example a Blender wrapper:
//
//	blender -b -P render_job.py -- {job}
//
// The placeholders {job} and {output} in the arguments are replaced by the
// job file and the image path; when {job} does not occur the job path is
// appended as the last argument. The command must exit 0 and create the
// output file. Exit status 3 ([ExitOverlap]) reports that the objects
// occlude each other in the rendered view; the combination is then skipped
// like a geometric overlap. The job file is removed afterwards.
//
// Importing the package registers the "command" engine.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/render"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// Name is the registry name of the engine.
const Name = "command"

// ExitOverlap is the exit status an engine uses to reject a view in which
// the objects occlude each other.
const ExitOverlap = 3

func init() {
	render.Register(Name, func(s render.Settings) (render.Engine, error) { return New(s) })
}

// Job is the document handed to the external program.
type Job struct {
	Output  string             `json:"output"`
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Format  string             `json:"format"`
	Objects []Object           `json:"objects"`
	Camera  scene.CameraConfig `json:"camera"`
}

// Object is one asset in a job.
type Object struct {
	ID       string     `json:"id"`
	File     string     `json:"file"`
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Scale    float64    `json:"scale"`
}

// Engine runs one process per image.
type Engine struct {
	settings render.Settings
	logger   *log.Logger
	path     string

	objects []Object
	camera  *scene.CameraConfig
}

// New resolves the command on PATH. A missing program is fatal.
func New(s render.Settings) (*Engine, error) {
	if s.Command == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "command engine needs render.command")
	}
	path, err := exec.LookPath(s.Command)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "find render command")
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{settings: s, logger: logger, path: path}, nil
}

// Load implements render.Engine.
func (e *Engine) Load(_ context.Context, a catalog.Asset, p scene.Placement) error {
	file := a.File
	if file != "" && !filepath.IsAbs(file) && e.settings.ShapeDir != "" {
		file = filepath.Join(e.settings.ShapeDir, file)
	}
	e.objects = append(e.objects, Object{
		ID:       a.ID,
		File:     file,
		Position: [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
		Yaw:      p.Yaw,
		Scale:    p.Scale,
	})
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
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create output dir")
	}

	job := Job{
		Output:  path,
		Width:   e.settings.Width,
		Height:  e.settings.Height,
		Format:  e.settings.Ext(),
		Objects: e.objects,
		Camera:  *e.camera,
	}
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode job")
	}
	jobPath := path + ".job.json"
	if err := os.WriteFile(jobPath, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write job")
	}
	defer os.Remove(jobPath)

	args := Args(e.settings.Args, jobPath, path)
	e.logger.Debug("running render command", "cmd", e.path, "args", args)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			// The process could not be started at all.
			return errors.Wrap(errors.ErrCodeRenderEngine, render.Fatal(err), "run %s", e.settings.Command)
		}
		if exitErr.ExitCode() == ExitOverlap {
			return errors.Wrap(errors.ErrCodeOverlap, err, "%s: %s", e.settings.Command, tail(out.String(), 5))
		}
		return errors.Wrap(errors.ErrCodeRenderEngine, err, "%s: %s", e.settings.Command, tail(out.String(), 5))
	}
	if _, err := os.Stat(path); err != nil {
		return errors.New(errors.ErrCodeRenderEngine, "%s exited without writing %s", e.settings.Command, path)
	}
	return nil
}

// Clear implements render.Engine.
func (e *Engine) Clear(context.Context) error {
	e.objects = nil
	e.camera = nil
	return nil
}

// Args substitutes the placeholders in args.
func Args(args []string, jobPath, output string) []string {
	out := make([]string, 0, len(args)+1)
	hasJob := false
	for _, a := range args {
		if strings.Contains(a, "{job}") {
			hasJob = true
		}
		out = append(out, strings.NewReplacer("{job}", jobPath, "{output}", output).Replace(a))
	}
	if !hasJob {
		out = append(out, jobPath)
	}
	return out
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

var _ render.Engine = (*Engine)(nil)
