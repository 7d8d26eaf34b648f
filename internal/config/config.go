// Package config loads the application configuration from an optional YAML
// file plus VERSEDB_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	Bootstrap struct {
		// Languages selects which bundled datasets to ingest; empty means all.
		Languages []string `mapstructure:"languages"`
	} `mapstructure:"bootstrap"`

	KV struct {
		// Name of the key-value database backing the embedded engine.
		Name string `mapstructure:"name"`
		// Sync pushes the stored image to the Charm server after writes.
		Sync bool `mapstructure:"sync"`
	} `mapstructure:"kv"`
}

// DefaultDataDir resolves the data directory following XDG.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "versedb")
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "versedb")
}

// Load reads configuration from path (optional; "" uses defaults and
// environment only).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("kv.name", "versedb")
	v.SetDefault("kv.sync", false)
	v.SetEnvPrefix("VERSEDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
