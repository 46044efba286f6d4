// Package config handles the user configuration file.
package config

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	ConfigDir = "apa2tex"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// HistoryFile is the run history database name.
	HistoryFile = "history.db"
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "APA2TEX_CONFIG"
)

// ConfigPath returns the path to the config file.
// $APA2TEX_CONFIG wins; otherwise XDG_CONFIG_HOME is respected, defaulting
// to ~/.config/apa2tex/config.yml.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultHistoryPath returns the run history location used when
// history_path is not configured: $XDG_DATA_HOME/apa2tex/history.db,
// defaulting to ~/.local/share/apa2tex/history.db.
func DefaultHistoryPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, ConfigDir, HistoryFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
