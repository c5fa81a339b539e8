// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers a YAML file and environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/okian/quotedesk/internal/domain/normalize"
	"github.com/okian/quotedesk/internal/domain/scoring"
)

// Supported log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
	LogFormatTint = "tint"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text, json or tint.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database. Empty keeps everything in memory.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory resync queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the number of quotes with a pending resync.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultPreset names the weight preset used when a request has none.
	DefaultPreset string `koanf:"default_preset"`

	// DefaultDeliveryDays is assumed when a proposal omits its delivery time.
	DefaultDeliveryDays int `koanf:"default_delivery_days"`

	// DefaultWarrantyMonths is assumed when a proposal omits its warranty.
	DefaultWarrantyMonths int `koanf:"default_warranty_months"`

	// TotalEpsilon is the tolerance between reported and computed totals.
	TotalEpsilon float64 `koanf:"total_epsilon"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             LogFormatText,
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU(),
		DedupeSize:            100_000,
		DefaultPreset:         scoring.PresetBalanced,
		DefaultDeliveryDays:   normalize.DefaultDeliveryDays,
		DefaultWarrantyMonths: normalize.DefaultWarrantyMonths,
		TotalEpsilon:          normalize.DefaultEpsilon,
	}
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TotalEpsilon < 0 {
		return fmt.Errorf("%w: total_epsilon must not be negative", ErrInvalidConfig)
	}
	if !slices.Contains([]string{LogFormatText, LogFormatJSON, LogFormatTint}, c.LogFormat) {
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := scoring.Preset(c.DefaultPreset); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
