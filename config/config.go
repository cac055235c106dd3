// Package config provides configuration parsing for perf-pulse.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as "1s" or "250ms" in
// YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config represents the perf-pulse configuration.
type Config struct {
	// RefreshInterval is both the sampling period and the redraw period.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// HistoryCapacity is the number of samples kept per live chart.
	HistoryCapacity int `yaml:"history_capacity"`

	// ReportFile is the export target path.
	ReportFile string `yaml:"report_file"`

	// ReportFormat is "csv" or "sqlite".
	ReportFormat string `yaml:"report_format"`

	// CPUSampleWindow is how long each CPU reading measures utilization.
	CPUSampleWindow Duration `yaml:"cpu_sample_window"`

	// SensorTimeout bounds a single sensor read. Zero disables the bound.
	SensorTimeout Duration `yaml:"sensor_timeout"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// LogFile receives log output while the dashboard owns the terminal.
	// Empty means the default under the XDG state directory.
	LogFile string `yaml:"log_file"`

	// Headless disables the dashboard and prints samples to stdout.
	Headless bool `yaml:"headless"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval: Duration{1 * time.Second},
		HistoryCapacity: 100,
		ReportFile:      "report.csv",
		ReportFormat:    "csv",
		CPUSampleWindow: Duration{100 * time.Millisecond},
		SensorTimeout:   Duration{5 * time.Second},
		LogLevel:        "info",
	}
}

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/perf-pulse/config.yaml
//  2. ~/.config/perf-pulse/config.yaml
//
// If no file exists, the defaults are used. Environment overrides are
// applied in both cases.
func Load() (*Config, error) {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadConfig(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadConfig loads configuration from a YAML file, merging with defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks environment variables and overrides config values.
// Malformed values are ignored and the file or default value is kept.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PERF_PULSE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshInterval = Duration{d}
		}
	}
	if v := os.Getenv("PERF_PULSE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryCapacity = n
		}
	}
	if v := os.Getenv("PERF_PULSE_REPORT"); v != "" {
		cfg.ReportFile = v
	}
	if v := os.Getenv("PERF_PULSE_FORMAT"); v != "" {
		cfg.ReportFormat = v
	}
	if v := os.Getenv("PERF_PULSE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the configuration for required fields and logical consistency.
func (c *Config) Validate() error {
	if c.RefreshInterval.Duration <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval.Duration)
	}
	if c.CPUSampleWindow.Duration <= 0 {
		return fmt.Errorf("cpu_sample_window must be positive, got %s", c.CPUSampleWindow.Duration)
	}
	if c.CPUSampleWindow.Duration >= c.RefreshInterval.Duration {
		return fmt.Errorf("cpu_sample_window (%s) must be shorter than refresh_interval (%s)",
			c.CPUSampleWindow.Duration, c.RefreshInterval.Duration)
	}
	if c.SensorTimeout.Duration < 0 {
		return fmt.Errorf("sensor_timeout must not be negative, got %s", c.SensorTimeout.Duration)
	}
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be at least 1, got %d", c.HistoryCapacity)
	}
	if strings.TrimSpace(c.ReportFile) == "" {
		return fmt.Errorf("report_file is required")
	}

	validFormats := map[string]bool{"csv": true, "sqlite": true}
	if !validFormats[strings.ToLower(c.ReportFormat)] {
		return fmt.Errorf("report_format must be 'csv' or 'sqlite', got %q", c.ReportFormat)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	return nil
}

// LogPath returns the log file to use, falling back to
// $XDG_STATE_HOME/perf-pulse/perf-pulse.log.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	home, _ := os.UserHomeDir()
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "perf-pulse", "perf-pulse.log")
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// searchPaths returns the ordered list of config file paths to try.
func searchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdg, "perf-pulse", "config.yaml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "perf-pulse", "config.yaml"))
	}

	return paths
}
