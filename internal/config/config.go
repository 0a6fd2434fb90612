// Package config handles TOML configuration for the inventory CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendBolt     = "bolt"
)

// Config is the root configuration structure.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	AWS     AWSConfig     `toml:"aws"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	Table    string `toml:"table"`
	Endpoint string `toml:"endpoint"`
	Shards   int    `toml:"shards"`
	Path     string `toml:"path"`

	WaitStr string `toml:"wait"`
	Wait    time.Duration
}

// AWSConfig holds AWS session settings.
type AWSConfig struct {
	Profile string   `toml:"profile"`
	Region  string   `toml:"region"`
	Regions []string `toml:"regions"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Store.Wait, _ = time.ParseDuration(cfg.Store.WaitStr)
	return cfg
}

// Load reads and parses a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := parseWait(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendDynamoDB
	}
	if cfg.Store.Table == "" {
		cfg.Store.Table = "inventory"
	}
	if cfg.Store.Shards == 0 {
		cfg.Store.Shards = 10
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "inventory.db"
	}
	if cfg.Store.WaitStr == "" {
		cfg.Store.WaitStr = "2m"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func parseWait(cfg *Config) error {
	d, err := time.ParseDuration(cfg.Store.WaitStr)
	if err != nil {
		return fmt.Errorf("parse wait %q: %w", cfg.Store.WaitStr, err)
	}
	cfg.Store.Wait = d
	return nil
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendDynamoDB, BackendBolt:
	default:
		return fmt.Errorf("store: unknown backend %q (want %s or %s)", c.Store.Backend, BackendDynamoDB, BackendBolt)
	}
	if c.Store.Shards < 1 || c.Store.Shards > 256 {
		return fmt.Errorf("store: shards must be between 1 and 256 (got %d)", c.Store.Shards)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
