package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/spatialgen/pkg/errors"
)

// PropertiesFiles are the file names Load looks for, in order.
var PropertiesFiles = []string{
	"properties.json",
	"properties.yaml",
	"properties.yml",
	"properties.toml",
}

// properties is the on-disk shape of one asset entry.
type properties struct {
	File               string    `json:"file" yaml:"file" toml:"file"`
	Group              string    `json:"group" yaml:"group" toml:"group"`
	Scale              float64   `json:"scale" yaml:"scale" toml:"scale"`
	Footprint          Footprint `json:"footprint" yaml:"footprint" toml:"footprint"`
	DefaultOrientation string    `json:"default_orientation" yaml:"default_orientation" toml:"default_orientation"`
}

// Load reads the catalog from a directory containing one of
// [PropertiesFiles], or from a properties file path directly.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalog, err, "open catalog %s", path)
	}
	if !info.IsDir() {
		return LoadFile(path)
	}
	for _, name := range PropertiesFiles {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFile(candidate)
		}
	}
	return nil, errors.New(errors.ErrCodeCatalog, "no properties file in %s (looked for %s)",
		path, strings.Join(PropertiesFiles, ", "))
}

// LoadFile reads the catalog from a single properties file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalog, err, "read %s", path)
	}
	entries, err := decode(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalog, err, "parse %s", path)
	}

	assets := make([]Asset, 0, len(entries))
	for id, p := range entries {
		assets = append(assets, Asset{
			ID:                 id,
			File:               p.File,
			Group:              strings.ToLower(p.Group),
			Scale:              p.Scale,
			Footprint:          p.Footprint,
			DefaultOrientation: p.DefaultOrientation,
		})
	}
	return New(assets...)
}

func decode(data []byte, ext string) (map[string]properties, error) {
	var entries map[string]properties
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &entries); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
