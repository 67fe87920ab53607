// Package config defines the usl command configuration and how it is loaded.
//
// Display scales are presentation choices for the derived efficiency and
// response time series; they never change the model itself.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches logs from colorized text to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Fitter selects the fitting algorithm: linear or gradient.
	Fitter string `koanf:"fitter"`

	// Iterations and Seed configure the gradient fitter.
	Iterations int    `koanf:"iterations"`
	Seed       uint64 `koanf:"seed"`

	// GridPoints is the number of loads the curve is evaluated at.
	// 0 means two points per measurement.
	GridPoints int `koanf:"grid_points"`

	// EfficiencyScale multiplies X(N)/N for display.
	EfficiencyScale float64 `koanf:"efficiency_scale"`

	// ResponseTimeScale multiplies the relative response time for display.
	ResponseTimeScale float64 `koanf:"response_time_scale"`

	// Format is the report format: text, csv or json.
	Format string `koanf:"format"`

	// MetricsFile, when set, receives a Prometheus textfile of the coefficients.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Fitter:            "linear",
		Iterations:        20000,
		Seed:              1,
		GridPoints:        0,
		EfficiencyScale:   10,
		ResponseTimeScale: 1000,
		Format:            "text",
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "text", "csv", "json":
	default:
		return fmt.Errorf("%w: format must be text, csv or json, got %q", ErrInvalidConfig, c.Format)
	}
	switch strings.ToLower(c.Fitter) {
	case "linear", "gradient", "gd":
	default:
		return fmt.Errorf("%w: fitter must be linear or gradient, got %q", ErrInvalidConfig, c.Fitter)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.GridPoints < 0 {
		return fmt.Errorf("%w: grid_points must not be negative, got %d", ErrInvalidConfig, c.GridPoints)
	}
	if c.EfficiencyScale <= 0 || c.ResponseTimeScale <= 0 {
		return fmt.Errorf("%w: display scales must be positive", ErrInvalidConfig)
	}
	return nil
}
