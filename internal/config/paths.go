package config

import (
	"os"
	"path/filepath"
)

// Dir returns the configuration directory path (~/.config/orchat).
// It can be overridden with the ORCHAT_CONFIG_DIR environment variable.
func Dir() string {
	if d := os.Getenv("ORCHAT_CONFIG_DIR"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "orchat")
	}
	return filepath.Join(home, ".config", "orchat")
}

// ConfigFile returns the path to the config.yaml file.
func ConfigFile() string {
	return filepath.Join(Dir(), "config.yaml")
}

// SessionsDir resolves the sessions directory: an absolute configured path is
// used as-is, a relative one is taken relative to the working directory.
func SessionsDir(cfg Config) string {
	if cfg.Session.Dir == "" {
		return "runs"
	}
	return cfg.Session.Dir
}
