// Package config holds the typed spatialgen configuration.
//
// Values are resolved with priority defaults < file < flags. The file is
// TOML:
//
//	[paths]
//	shape_dir = "assets/shapes"
//	properties = "assets/properties.json"
//	output_image_dir = "out/images"
//	output_scene_dir = "out/scenes"
//	filename_prefix = "spatial"
//
//	[render]
//	engine = "schematic"
//	format = "webp"
//	width = 512
//	height = 512
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
package config

import (
	"time"

	"github.com/matzehuels/spatialgen/pkg/camera"
	"github.com/matzehuels/spatialgen/pkg/metadata"
)

// Engine names.
const (
	EngineSchematic = "schematic"
	EngineCommand   = "command"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds all settings.
type Config struct {
	Paths    PathsConfig       `toml:"paths"`
	Render   RenderConfig      `toml:"render"`
	Scene    SceneConfig       `toml:"scene"`
	Camera   camera.Ranges     `toml:"camera"`
	Captions metadata.Captions `toml:"captions"`
	Cache    CacheConfig       `toml:"cache"`
	Sinks    SinksConfig       `toml:"sinks"`
	Logging  LoggingConfig     `toml:"logging"`
	Serve    ServeConfig       `toml:"serve"`
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	ShapeDir       string `toml:"shape_dir"`
	Properties     string `toml:"properties"`
	OutputImageDir string `toml:"output_image_dir"`
	OutputSceneDir string `toml:"output_scene_dir"`
	FilenamePrefix string `toml:"filename_prefix"`
}

// RenderConfig selects and configures the render engine.
type RenderConfig struct {
	Engine  string   `toml:"engine"`
	Format  string   `toml:"format"`
	Width   int      `toml:"width"`
	Height  int      `toml:"height"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// SceneConfig holds placement defaults.
type SceneConfig struct {
	Distance  float64 `toml:"distance"`
	PairScale bool    `toml:"pair_scale"`
	// Objects is the object set of batch and plan runs without --objects.
	// Every id must exist in the catalog.
	Objects []string `toml:"objects"`
}

// CacheConfig configures the completion cache used to resume batches.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	Password  string        `toml:"password"`
	TTL       time.Duration `toml:"ttl"`
	Namespace string        `toml:"namespace"` // Key prefix shared by datasets on one backend
}

// SinksConfig lists extra metadata destinations.
type SinksConfig struct {
	Mongo MongoConfig `toml:"mongo"`
}

// MongoConfig enables the MongoDB sink when URI is set.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Enabled reports whether records should also go to MongoDB.
func (m MongoConfig) Enabled() bool { return m.URI != "" }

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// ServeConfig configures the dataset browser.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			ShapeDir:       "assets",
			Properties:     "assets/properties.json",
			OutputImageDir: "output/images",
			OutputSceneDir: "output/scenes",
			FilenamePrefix: "spatial",
		},
		Render: RenderConfig{
			Engine: EngineSchematic,
			Format: "png",
			Width:  512,
			Height: 512,
		},
		Scene: SceneConfig{
			Distance:  3,
			PairScale: true,
		},
		Camera: camera.DefaultRanges(),
		Cache: CacheConfig{
			Backend: CacheFile,
		},
		Sinks: SinksConfig{
			Mongo: MongoConfig{
				Database:   "spatialgen",
				Collection: "scenes",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}
