// Package config provides configuration helpers and TOML parsing.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Runs    RunsConfig    `toml:"runs"`
	Server  ServerConfig  `toml:"server"`
	History HistoryConfig `toml:"history"`
}

// RunsConfig maps run discovery settings.
type RunsConfig struct {
	Path *string `toml:"path,omitempty"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr         *string `toml:"addr,omitempty"`
	LiveInterval *int    `toml:"live-interval,omitempty"`
}

// HistoryConfig maps snapshot history settings.
type HistoryConfig struct {
	DB *string `toml:"db,omitempty"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// SaveRunsPath rewrites the config file with the given runs path.
// An empty path removes the setting. Other values are preserved.
func SaveRunsPath(path, runsPath string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	if runsPath == "" {
		cfg.Runs.Path = nil
	} else {
		cfg.Runs.Path = &runsPath
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
