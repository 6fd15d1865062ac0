package cli

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/buildinfo"
	"github.com/matzehuels/spatialgen/pkg/cache"
	"github.com/matzehuels/spatialgen/pkg/catalog"
	"github.com/matzehuels/spatialgen/pkg/config"
	"github.com/matzehuels/spatialgen/pkg/enumerate"
	"github.com/matzehuels/spatialgen/pkg/errors"
	"github.com/matzehuels/spatialgen/pkg/metadata"
	"github.com/matzehuels/spatialgen/pkg/pipeline"
	"github.com/matzehuels/spatialgen/pkg/render"

	// Engines register themselves with the render registry.
	_ "github.com/matzehuels/spatialgen/pkg/render/command"
	_ "github.com/matzehuels/spatialgen/pkg/render/schematic"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "spatialgen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
	stderr     io.Writer
	logFile    io.Closer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
		stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "spatialgen renders labeled two-object spatial relation datasets",
		Long: `spatialgen composes scenes of two catalog objects under a requested spatial
relation (left, right, front, behind), renders them from configurable cameras
and writes a ground-truth metadata record next to every image.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./spatialgen.toml, then $XDG_CONFIG_HOME/spatialgen/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	var walk func(*cobra.Command)
	walk = func(cmd *cobra.Command) {
		c.registerCompletions(cmd)
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(root)

	return root
}

// setup loads the configuration and rebuilds the logger from it.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := parseLevel(cfg.Logging.Level)
	if c.verbose {
		level = log.DebugLevel
	}
	w := c.stderr
	if lw := cfg.Logging.LogWriter(); lw != nil {
		c.logFile = lw
		w = io.MultiWriter(w, lw)
	}
	c.Logger = newLogger(w, level)
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// Close flushes the log file, if any.
func (c *CLI) Close() error {
	if c.logFile != nil {
		return c.logFile.Close()
	}
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// openCatalog loads the asset catalog from path, or from the configured
// properties file when path is empty.
func (c *CLI) openCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		path = c.cfg.Paths.Properties
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cat.Require(c.cfg.Scene.Objects); err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded catalog", "path", path, "assets", cat.Len())
	return cat, nil
}

// spaceOptions builds enumerator options, taking the object set from the
// config when --objects was not given.
func (c *CLI) spaceOptions(f *spaceFlags) (enumerate.Options, error) {
	eo, err := f.options(c.cfg.Camera)
	if err != nil {
		return eo, err
	}
	if len(eo.Objects) == 0 {
		eo.Objects = slices.Clone(c.cfg.Scene.Objects)
	}
	return eo, nil
}

// newEngine builds the configured render engine.
func (c *CLI) newEngine(name, format string) (render.Engine, pipeline.EngineInfo, error) {
	rc := c.cfg.Render
	info := pipeline.EngineInfo{
		Name:    firstNonEmpty(name, rc.Engine),
		Width:   rc.Width,
		Height:  rc.Height,
		Format:  firstNonEmpty(format, rc.Format),
		Command: rc.Command,
		Args:    rc.Args,
	}
	engine, err := render.New(info.Name, render.Settings{
		Width:    rc.Width,
		Height:   rc.Height,
		Format:   info.Format,
		ShapeDir: c.cfg.Paths.ShapeDir,
		Command:  rc.Command,
		Args:     rc.Args,
		Logger:   c.Logger,
	})
	return engine, info, err
}

// newCache opens the completion cache selected in the config.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cc := c.cfg.Cache
	switch cc.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cc.RedisAddr,
			Password: cc.Password,
			DB:       cc.RedisDB,
			Prefix:   appName + ":",
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to redis at %s", cc.RedisAddr)
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, resuming disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the file cache directory.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return config.CacheDir()
}

// newSink returns the metadata sink and a function releasing it.
func (c *CLI) newSink(ctx context.Context) (metadata.Sink, func(), error) {
	m := c.cfg.Sinks.Mongo
	if !m.Enabled() {
		return metadata.FileSink{}, func() {}, nil
	}
	ms, err := metadata.NewMongoSink(ctx, m.URI, m.Database, m.Collection)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Info("writing records to mongodb", "database", m.Database, "collection", m.Collection)
	release := func() {
		if err := ms.Close(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("close mongodb", "error", err)
		}
	}
	return metadata.MultiSink{metadata.FileSink{}, ms}, release, nil
}

// runnerOpts are the command-line overrides applied on top of the config.
type runnerOpts struct {
	engine   string
	format   string
	distance float64
	hasDist  bool
	imageDir string
	sceneDir string
	prefix   string
	refresh  bool
	noCache  bool
	noScale  bool
}

// newRunner wires catalog, engine, cache and sinks into a pipeline runner.
// The returned function releases everything the runner holds.
func (c *CLI) newRunner(ctx context.Context, cat *catalog.Catalog, o runnerOpts) (*pipeline.Runner, func(), error) {
	engine, info, err := c.newEngine(o.engine, o.format)
	if err != nil {
		return nil, nil, err
	}

	var cc cache.Cache = cache.NewNullCache()
	if !o.noCache {
		if cc, err = c.newCache(ctx); err != nil {
			return nil, nil, err
		}
	}
	sink, releaseSink, err := c.newSink(ctx)
	if err != nil {
		cc.Close()
		return nil, nil, err
	}

	var keyer cache.Keyer
	if ns := c.cfg.Cache.Namespace; ns != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), ns+":")
	}
	r := pipeline.NewRunner(cat, engine, cc, keyer, c.Logger)
	r.Sink = sink
	r.Engine = info
	r.Captions = c.cfg.Captions
	r.PairScale = c.cfg.Scene.PairScale && !o.noScale
	r.Distance = c.cfg.Scene.Distance
	if o.hasDist {
		r.Distance = o.distance
	}
	r.Refresh = o.refresh
	r.CacheTTL = c.cfg.Cache.TTL
	r.Layout = pipeline.Layout{
		ImageRoot: firstNonEmpty(o.imageDir, c.cfg.Paths.OutputImageDir),
		SceneRoot: firstNonEmpty(o.sceneDir, c.cfg.Paths.OutputSceneDir),
		Prefix:    firstNonEmpty(o.prefix, c.cfg.Paths.FilenamePrefix),
		Ext:       render.Settings{Format: info.Format}.Ext(),
	}

	release := func() {
		if err := r.Close(); err != nil {
			c.Logger.Warn("close render engine", "error", err)
		}
		releaseSink()
		cc.Close()
	}
	return r, release, nil
}

// =============================================================================
// Helpers
// =============================================================================

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseLevel maps a config level name to a log level.
func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// stderrIsTerminal reports whether interactive output makes sense.
func stderrIsTerminal() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
