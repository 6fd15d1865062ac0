package render

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/scene"
)

// ErrEngineFatal marks engine errors after which no further image can be
// rendered.
var ErrEngineFatal = stderrors.New("render engine unusable")

// Engine is the contract with an external renderer.
type Engine interface {
	// Load adds one asset to the scene with the given transform.
	Load(ctx context.Context, asset catalog.Asset, p scene.Placement) error
	// SetCamera configures the camera for the next render.
	SetCamera(ctx context.Context, cfg scene.CameraConfig) error
	// Render writes the image of the current scene to path.
	Render(ctx context.Context, path string) error
	// Clear removes every loaded object and the camera.
	Clear(ctx context.Context) error
}

// Output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Settings configure engine construction.
type Settings struct {
	Width    int
	Height   int
	Format   string   // png or webp
	ShapeDir string   // Directory asset files are resolved against
	Command  string   // Program run by the command engine
	Args     []string // Arguments; {job} and {output} are substituted
	Logger   *log.Logger
}

// Ext returns the file extension of the configured format.
func (s Settings) Ext() string {
	if s.Format == "" {
		return FormatPNG
	}
	return strings.ToLower(s.Format)
}

// Validate checks resolution and format.
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolution must be positive, got %dx%d", s.Width, s.Height)
	}
	switch s.Ext() {
	case FormatPNG, FormatWebP:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported image format %q", s.Format)
	}
	return nil
}

// Factory builds an engine from settings.
type Factory func(Settings) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes an engine available under name. It panics on duplicates.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("render: engine %q registered twice", name))
	}
	registry[name] = f
}

// New builds the engine registered under name.
func New(name string, s Settings) (Engine, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown render engine %q (available: %s)",
			name, strings.Join(Engines(), ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Logger == nil {
		s.Logger = log.Default()
	}
	return f(s)
}

// Engines returns the registered engine names, sorted.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// EngineError wraps err with the RENDER_ENGINE code unless it already
// carries a code.
func EngineError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeRenderEngine, err, format, args...)
}

// Fatal marks err as unrecoverable for the engine.
func Fatal(err error) error {
	return fmt.Errorf("%w: %w", ErrEngineFatal, err)
}
