package config

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/spatialgen/pkg/errors"
)

const (
	appName  = "spatialgen"
	fileName = "spatialgen.toml"
)

// Load reads the configuration. An explicit path must exist; otherwise
// ./spatialgen.toml and the user config directory are searched and the
// defaults are used if neither exists. The result is validated.
func Load(path string) (*Config, string, error) {
	cfg := Default()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, path, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// findConfigFile looks for a config in the standard locations.
func findConfigFile() string {
	candidates := []string{fileName}
	if dir := ConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	if runtime.GOOS != "windows" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName)
}

// CacheDir returns the per-user cache directory (~/.cache/spatialgen).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

func loadFromFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(names, ", "))
	}
	return nil
}

// Validate rejects settings no command can work with.
func (c *Config) Validate() error {
	switch c.Render.Engine {
	case EngineSchematic:
	case EngineCommand:
		if c.Render.Command == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "render.command is required for the command engine")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown render engine %q", c.Render.Engine)
	}
	switch strings.ToLower(c.Render.Format) {
	case "png", "webp":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported image format %q", c.Render.Format)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolution must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if d := c.Scene.Distance; d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "scene.distance must be a non-negative number, got %v", d)
	}
	if err := c.Camera.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateFilenamePrefix(c.Paths.FilenamePrefix); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if m := c.Sinks.Mongo; m.Enabled() && (m.Database == "" || m.Collection == "") {
		return errors.New(errors.ErrCodeInvalidConfig, "sinks.mongo needs a database and a collection")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log level %q", c.Logging.Level)
	}
	return nil
}
