// Package config provides centralized configuration management.
//
// Configuration is resolved in order:
//  1. Command-line flags (cmd/server/main.go)
//  2. YAML file (-config path)
//  3. Built-in defaults
//
// Example usage:
//
//	cfg := config.LoadOrDefault("config.yaml")
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig holds database and artifact settings
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	OutputDir    string `yaml:"output_dir"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Storage: StorageConfig{
			DatabasePath: "atlas.db",
			OutputDir:    ".",
		},
	}
}

// Load reads and parses the config file on top of the defaults. Keys the
// file omits keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ATLAS_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load from the specified path, falls back to the
// defaults when the file does not exist. An empty path skips the file. A
// file that exists but fails to parse also falls back, loudly: the operator
// supplied it on purpose.
func LoadOrDefault(path string) *Config {
	if path == "" {
		return Default()
	}
	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Config] Falling back to defaults: %v", err)
		}
		return Default()
	}
	return cfg
}
