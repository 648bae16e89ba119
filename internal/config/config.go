// Package config loads allmemscan settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zhuweiyou/allmemscan"
)

var (
	// ErrInvalidWorkers is returned when workers is outside [0, MaxWorkers].
	ErrInvalidWorkers = errors.New("workers must be between 0 (auto) and 64")

	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrEmptyPath is returned when a required path is empty.
	ErrEmptyPath = errors.New("path must not be empty")
)

// Environment variables overriding file values.
const (
	EnvDevice   = "ALLMEMSCAN_DEVICE"
	EnvIomem    = "ALLMEMSCAN_IOMEM"
	EnvWorkers  = "ALLMEMSCAN_WORKERS"
	EnvLogLevel = "ALLMEMSCAN_LOG_LEVEL"
)

// Config holds scanner settings.
type Config struct {
	// Device is the raw memory device to map ranges from.
	Device string `yaml:"device"`
	// Iomem is the memory map listing candidate ranges.
	Iomem string `yaml:"iomem"`
	// Workers is the parallelism hint; 0 means one per logical CPU.
	Workers int `yaml:"workers"`
	// Exclude lists memory map tags whose ranges are skipped.
	Exclude []string `yaml:"exclude"`
	// Overlapping reports overlapping occurrences of self-overlapping patterns.
	Overlapping bool `yaml:"overlapping"`
	// Log configures diagnostics.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Device:  allmemscan.DefaultDevice,
		Iomem:   allmemscan.DefaultIomem,
		Workers: 0,
		Exclude: append([]string(nil), allmemscan.DefaultExclude...),
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // G304: config path is operator supplied.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ALLMEMSCAN_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDevice); v != "" {
		c.Device = v
	}
	if v := os.Getenv(EnvIomem); v != "" {
		c.Iomem = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device: %w", ErrEmptyPath)
	}
	if c.Iomem == "" {
		return fmt.Errorf("iomem: %w", ErrEmptyPath)
	}
	if c.Workers < 0 || c.Workers > allmemscan.MaxWorkers {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Workers)
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	return nil
}

// EffectiveWorkers resolves the worker count, expanding 0 to the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers == 0 {
		return allmemscan.DefaultWorkers()
	}
	return c.Workers
}
