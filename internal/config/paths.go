package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "GRAPHCLIP_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "graphclip.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "graphclip"
)

// FindConfigPath searches for config file in priority order:
// 1. $GRAPHCLIP_CONFIG (explicit path)
// 2. ./graphclip.yaml (working directory)
// 3. $XDG_CONFIG_HOME/graphclip/config.yaml
// 4. ~/.config/graphclip/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// DefaultClipboardPath returns where the persistent clipboard lives when the
// config does not say otherwise.
func DefaultClipboardPath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, ConfigDirName, "clipboard")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", ConfigDirName, "clipboard")
	}
	return filepath.Join(".graphclip", "clipboard")
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0o755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
