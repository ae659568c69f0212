// Package config handles loading application configuration from an optional
// YAML file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	LogLevel       string   `yaml:"log_level"`
	ListenAddr     string   `yaml:"listen_addr"`
	ModulePixels   int      `yaml:"module_pixels"`
	OutputDir      string   `yaml:"output_dir"`
	PreviewTimeout Duration `yaml:"preview_timeout"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		LogLevel:       "info",
		ListenAddr:     "127.0.0.1:8556",
		ModulePixels:   10,
		OutputDir:      ".",
		PreviewTimeout: Duration{30 * time.Second},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Environment variables with the
// BOOK_QR_ prefix override any file or default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies BOOK_QR_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOK_QR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOOK_QR_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BOOK_QR_MODULE_PIXELS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ModulePixels = n
		}
	}
	if v := os.Getenv("BOOK_QR_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("BOOK_QR_PREVIEW_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PreviewTimeout = Duration{d}
		}
	}
}

func (c *Config) validate() error {
	if c.ModulePixels < 1 || c.ModulePixels > 100 {
		return fmt.Errorf("module_pixels must be between 1 and 100, got %d", c.ModulePixels)
	}
	if c.PreviewTimeout.Duration <= 0 {
		return fmt.Errorf("preview_timeout must be positive, got %s", c.PreviewTimeout.Duration)
	}
	return nil
}

// EnsureOutputDir creates OutputDir if it does not already exist.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", c.OutputDir, err)
	}
	return nil
}
