// Package config holds the process-level settings for hosts embedding the
// batch engine and for the CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/nodeforge/batch"
	"github.com/c360/nodeforge/errors"
)

// Config is the complete application configuration. Zero values fall back to
// the defaults below; Normalize fills them in.
type Config struct {
	// LogLevel is one of debug, info, warn, or error.
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `yaml:"metrics_namespace,omitempty" json:"metrics_namespace,omitempty"`
	// MaxOperations caps the operation count of a single batch request.
	// Zero means unlimited.
	MaxOperations int `yaml:"max_operations,omitempty" json:"max_operations,omitempty"`
	// MaxAliasLength caps the length of batch-local aliases. Zero means
	// unlimited.
	MaxAliasLength int `yaml:"max_alias_length,omitempty" json:"max_alias_length,omitempty"`
	// OnError is the failure policy applied to requests that do not name one.
	OnError batch.OnError `yaml:"on_error,omitempty" json:"on_error,omitempty"`
	// Verbosity is the reporting level applied to requests that do not name
	// one.
	Verbosity batch.Verbosity `yaml:"verbosity,omitempty" json:"verbosity,omitempty"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		LogLevel:         "info",
		MetricsNamespace: "nodeforge",
		OnError:          batch.OnErrorRollback,
		Verbosity:        batch.VerbosityNormal,
	}
}

// Normalize fills empty fields from the defaults.
func (c *Config) Normalize() {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.OnError == "" {
		c.OnError = d.OnError
	}
	if c.Verbosity == "" {
		c.Verbosity = d.Verbosity
	}
}

// Validate checks field values after normalization.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.MaxOperations < 0 {
		return errors.WrapValidation(
			fmt.Errorf("max_operations %d cannot be negative: %w", c.MaxOperations, errors.ErrInvalidConfig),
			"Config", "Validate", "operation limit check")
	}
	if c.MaxAliasLength < 0 {
		return errors.WrapValidation(
			fmt.Errorf("max_alias_length %d cannot be negative: %w", c.MaxAliasLength, errors.ErrInvalidConfig),
			"Config", "Validate", "alias length check")
	}
	switch c.OnError {
	case batch.OnErrorRollback, batch.OnErrorContinue, batch.OnErrorStop:
	default:
		return errors.WrapValidation(
			fmt.Errorf("on_error %q must be rollback, continue, or stop: %w", c.OnError, errors.ErrInvalidConfig),
			"Config", "Validate", "error policy check")
	}
	switch c.Verbosity {
	case batch.VerbositySummary, batch.VerbosityNormal, batch.VerbosityDetailed:
	default:
		return errors.WrapValidation(
			fmt.Errorf("verbosity %q must be summary, normal, or detailed: %w", c.Verbosity, errors.ErrInvalidConfig),
			"Config", "Validate", "verbosity check")
	}
	return nil
}

// SlogLevel maps the configured log level onto slog's scale.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.WrapValidation(
			fmt.Errorf("log level %q must be debug, info, warn, or error: %w", c.LogLevel, errors.ErrInvalidConfig),
			"Config", "SlogLevel", "log level check")
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	dup := *c
	return &dup
}

// Load parses a YAML configuration document, normalizes it, and validates it.
func Load(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapValidation(err, "Config", "Load", "YAML parsing")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a configuration file. A missing path yields the defaults so
// that the CLI runs without any configuration on disk.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.WrapNotFound(err, "Config", "LoadFile", "config read")
	}
	return Load(data)
}
