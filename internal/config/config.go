// Package config loads qleany's runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultFile is the optional configuration file looked up in the working directory.
const DefaultFile = "qleany.config.yaml"

// Config holds all configuration for qleany.
// Values come from an optional YAML file; environment variables always override it.
type Config struct {
	// DatabasePath is the store file. Empty means a per-process file in the
	// temp directory that is removed when the application closes.
	DatabasePath string `yaml:"database_path" env:"QLEANY_DB" env-default:""`

	LogLevel string `yaml:"log_level" env:"QLEANY_LOG_LEVEL" env-default:"warn"`

	// UndoLimit bounds every undo stack; older commands are evicted first.
	UndoLimit int `yaml:"undo_limit" env:"QLEANY_UNDO_LIMIT" env-default:"100"`

	// EventPollInterval is the cadence at which event callbacks are dispatched.
	EventPollInterval time.Duration `yaml:"event_poll_interval" env:"QLEANY_EVENT_POLL" env-default:"50ms"`

	Formatter FormatterConfig `yaml:"formatter"`

	// Ephemeral is set when DatabasePath was derived rather than configured.
	Ephemeral bool `yaml:"-"`
}

// FormatterConfig controls the external source formatters.
type FormatterConfig struct {
	// ClangFormat overrides clang-format discovery through PATH.
	ClangFormat string `yaml:"clang_format" env:"CLANG_FORMAT" env-default:""`
	// Rustfmt overrides rustfmt discovery through PATH.
	Rustfmt string `yaml:"rustfmt" env:"RUSTFMT" env-default:""`
	// ClangStyle is passed as --style to clang-format.
	ClangStyle string `yaml:"clang_style" env:"QLEANY_CLANG_STYLE" env-default:"Microsoft"`
	// ChunkSize is the maximum number of paths per formatter invocation.
	ChunkSize int `yaml:"chunk_size" env:"QLEANY_FORMAT_CHUNK" env-default:"100"`
}

// Load reads configuration from path (if it exists) with environment overrides.
// A .env file in the working directory is applied to the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if path != "" && fileExists(path) {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(os.TempDir(), fmt.Sprintf("qleany-%d.db", os.Getpid()))
		cfg.Ephemeral = true
	}
	return cfg, nil
}

// Default returns the configuration obtained from defaults alone.
func Default() *Config {
	cfg := &Config{}
	_ = cleanenv.ReadEnv(cfg)
	return cfg
}

func (c *Config) validate() error {
	if c.UndoLimit < 1 {
		return fmt.Errorf("undo_limit must be positive, got %d", c.UndoLimit)
	}
	if c.Formatter.ChunkSize < 1 {
		return fmt.Errorf("formatter.chunk_size must be positive, got %d", c.Formatter.ChunkSize)
	}
	if c.EventPollInterval <= 0 {
		return fmt.Errorf("event_poll_interval must be positive, got %s", c.EventPollInterval)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
