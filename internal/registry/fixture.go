package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadRegistryFile reads a single registry configuration from a JSON or
// YAML file.
func LoadRegistryFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, eris.Wrap(err, "registry: read fixture")
	}

	var reg Registry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return Registry{}, eris.Wrapf(err, "registry: unmarshal yaml fixture %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &reg); err != nil {
			return Registry{}, eris.Wrapf(err, "registry: unmarshal json fixture %s", path)
		}
	default:
		return Registry{}, eris.Errorf("registry: unsupported fixture format %s", path)
	}
	return reg, nil
}

// LoadDir builds a catalog from the builtin registries plus every
// .json/.yaml registry file found in dir. An empty dir loads only the
// builtins.
func LoadDir(dir string) (*Catalog, error) {
	regs := []Registry{Verra(), Puro(), Isometric()}

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: read config dir %s", dir)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".json", ".yaml", ".yml":
			default:
				continue
			}
			reg, err := LoadRegistryFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, err
			}
			regs = append(regs, reg)
		}
	}

	return NewCatalog(regs...)
}
