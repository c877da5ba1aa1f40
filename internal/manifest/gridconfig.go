package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"bingo-kit/pkg/geometry"
)

// GridConfigName is the default grid config file name.
const GridConfigName = "grid_config.json"

// GridConfig maps image paths to calibrated grid bounds so later runs can
// skip detection.
type GridConfig struct {
	path   string
	Bounds map[string]geometry.Bounds
}

// LoadGridConfig reads the grid config at path. A missing or unreadable
// file yields an empty config.
func LoadGridConfig(path string) *GridConfig {
	cfg := &GridConfig{path: path, Bounds: map[string]geometry.Bounds{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg.Bounds); err != nil {
		log.WithError(err).WithField("path", path).Warn("ignoring unreadable grid config")
		cfg.Bounds = nil
	}
	if cfg.Bounds == nil {
		cfg.Bounds = map[string]geometry.Bounds{}
	}
	return cfg
}

// Key returns the entry name for image: its path relative to the working
// directory when it lies below it, else the absolute path. This lets the
// calibrator and the CLI agree on names for the same file.
func Key(image string) string {
	abs, err := filepath.Abs(image)
	if err != nil {
		return filepath.Clean(image)
	}
	wd, err := os.Getwd()
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}

// Path returns the file the config is saved to.
func (c *GridConfig) Path() string {
	return c.path
}

// Lookup returns the saved bounds for image.
func (c *GridConfig) Lookup(image string) (geometry.Bounds, bool) {
	b, ok := c.Bounds[image]
	return b, ok
}

// Put records bounds for image.
func (c *GridConfig) Put(image string, b geometry.Bounds) {
	c.Bounds[image] = b
}

// Images returns the configured image paths, sorted.
func (c *GridConfig) Images() []string {
	out := make([]string, 0, len(c.Bounds))
	for k := range c.Bounds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Save writes the config back to its path.
func (c *GridConfig) Save() error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(c.Bounds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
