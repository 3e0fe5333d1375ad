// Package config provides configuration management for graphclip.
//
// Config file locations (priority order):
//  1. $GRAPHCLIP_CONFIG
//  2. ./graphclip.yaml
//  3. $XDG_CONFIG_HOME/graphclip/config.yaml
//  4. ~/.config/graphclip/config.yaml
//
// Missing values fall back to defaults, and the result is validated before
// it is handed out.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Benny93/graphclip/internal/graph"
)

// Config is the graphclip configuration file.
type Config struct {
	Version   int             `yaml:"version" validate:"gte=1"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Duplicate DuplicateConfig `yaml:"duplicate"`
	Log       LogConfig       `yaml:"log"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ClipboardConfig configures the persistent clipboard store.
type ClipboardConfig struct {
	// Path is the BadgerDB directory of the clipboard.
	Path string `yaml:"path" validate:"required"`

	// HistorySize is how many previous clipboard entries are kept.
	HistorySize int `yaml:"history_size" validate:"gte=0,lte=1000"`
}

// DuplicateConfig holds the defaults of the duplicate command.
type DuplicateConfig struct {
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`

	// PlacematPrefix titles duplicated placemats "Copy of <title>".
	PlacematPrefix *bool `yaml:"placemat_prefix,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// DebounceMS is the quiet period before changed files are re-checked.
	DebounceMS int `yaml:"debounce_ms" validate:"gte=0,lte=60000"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

// Parse decodes, completes and validates a YAML config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Clipboard.Path == "" {
		c.Clipboard.Path = DefaultClipboardPath()
	}
	if c.Clipboard.HistorySize == 0 {
		c.Clipboard.HistorySize = 10
	}
	if c.Duplicate.OffsetX == 0 && c.Duplicate.OffsetY == 0 {
		c.Duplicate.OffsetX, c.Duplicate.OffsetY = 20, 20
	}
	if c.Duplicate.PlacematPrefix == nil {
		on := true
		c.Duplicate.PlacematPrefix = &on
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = 300
	}
}

// DuplicateOffset returns the default placement delta of a duplicate.
func (c *Config) DuplicateOffset() graph.Vec2 {
	return graph.Vec2{X: c.Duplicate.OffsetX, Y: c.Duplicate.OffsetY}
}

// PlacematPrefix reports whether duplicated placemats get a "Copy of" title.
func (c *Config) PlacematPrefix() bool {
	return c.Duplicate.PlacematPrefix == nil || *c.Duplicate.PlacematPrefix
}

// Debounce returns the watch debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
