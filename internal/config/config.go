// Package config loads the YAML configuration for the tail/serve commands,
// adapted from this codebase's original configuration loader.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a unified2spool deployment.
type Config struct {
	Spool   Spool   `yaml:"spool"`
	Catalog Catalog `yaml:"catalog"`
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
}

// Spool configures where to tail unified2 records from.
type Spool struct {
	Directory    string        `yaml:"directory"`
	Prefix       string        `yaml:"prefix"`
	BookmarkPath string        `yaml:"bookmark_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Catalog configures the durable event catalog.
type Catalog struct {
	Directory string `yaml:"directory"`
}

// HTTP configures the status/metrics server.
type HTTP struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Logging configures the logging level.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a configuration with sensible defaults for local
// development.
func DefaultConfig() *Config {
	return &Config{
		Spool: Spool{
			Directory:    "./spool",
			Prefix:       "unified2.log",
			BookmarkPath: "./unified2.bookmark",
			PollInterval: time.Second,
		},
		Catalog: Catalog{
			Directory: "./catalog",
		},
		HTTP: HTTP{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Errorf("config: file does not exist: %s", path)
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrap(err, "config: resolving absolute path")
		}
		path = abs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: reading file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "config: parsing yaml")
	}
	return config, nil
}

// Save writes config to path, creating parent directories as needed.
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrap(err, "config: creating parent directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "config: marshaling yaml")
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "config: writing file")
	}
	return nil
}

// Exists reports whether a configuration file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
