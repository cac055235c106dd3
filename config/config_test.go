package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RefreshInterval.Duration != time.Second {
		t.Errorf("expected RefreshInterval=1s, got %s", cfg.RefreshInterval.Duration)
	}
	if cfg.HistoryCapacity != 100 {
		t.Errorf("expected HistoryCapacity=100, got %d", cfg.HistoryCapacity)
	}
	if cfg.ReportFile != "report.csv" {
		t.Errorf("expected ReportFile=report.csv, got %s", cfg.ReportFile)
	}
	if cfg.ReportFormat != "csv" {
		t.Errorf("expected ReportFormat=csv, got %s", cfg.ReportFormat)
	}
	if cfg.CPUSampleWindow.Duration != 100*time.Millisecond {
		t.Errorf("expected CPUSampleWindow=100ms, got %s", cfg.CPUSampleWindow.Duration)
	}
	if cfg.SensorTimeout.Duration != 5*time.Second {
		t.Errorf("expected SensorTimeout=5s, got %s", cfg.SensorTimeout.Duration)
	}
	if cfg.Headless {
		t.Error("expected Headless to be false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") returned error: %v", err)
	}
	if cfg.HistoryCapacity != 100 {
		t.Error("expected default config for empty path")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.ReportFile != "report.csv" {
		t.Errorf("expected defaults, got ReportFile=%s", cfg.ReportFile)
	}
}

func TestLoadConfigValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	yaml := `
refresh_interval: 250ms
history_capacity: 30
report_file: /tmp/perf.db
report_format: sqlite
cpu_sample_window: 50ms
sensor_timeout: 2s
log_level: debug
headless: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.RefreshInterval.Duration != 250*time.Millisecond {
		t.Errorf("RefreshInterval = %s", cfg.RefreshInterval.Duration)
	}
	if cfg.HistoryCapacity != 30 {
		t.Errorf("HistoryCapacity = %d", cfg.HistoryCapacity)
	}
	if cfg.ReportFile != "/tmp/perf.db" || cfg.ReportFormat != "sqlite" {
		t.Errorf("report = %s (%s)", cfg.ReportFile, cfg.ReportFormat)
	}
	if cfg.CPUSampleWindow.Duration != 50*time.Millisecond {
		t.Errorf("CPUSampleWindow = %s", cfg.CPUSampleWindow.Duration)
	}
	if cfg.SensorTimeout.Duration != 2*time.Second {
		t.Errorf("SensorTimeout = %s", cfg.SensorTimeout.Duration)
	}
	if cfg.LogLevel != "debug" || !cfg.Headless {
		t.Errorf("LogLevel=%s Headless=%v", cfg.LogLevel, cfg.Headless)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("history_capacity: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HistoryCapacity != 42 {
		t.Errorf("HistoryCapacity = %d, want 42", cfg.HistoryCapacity)
	}
	if cfg.RefreshInterval.Duration != time.Second {
		t.Errorf("unset field should keep default, got %s", cfg.RefreshInterval.Duration)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tests := map[string]string{
		"syntax":   "history_capacity: [unclosed\n",
		"duration": "refresh_interval: soon\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PERF_PULSE_INTERVAL", "2s")
	t.Setenv("PERF_PULSE_CAPACITY", "7")
	t.Setenv("PERF_PULSE_REPORT", "out.db")
	t.Setenv("PERF_PULSE_FORMAT", "sqlite")
	t.Setenv("PERF_PULSE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RefreshInterval.Duration != 2*time.Second {
		t.Errorf("RefreshInterval = %s", cfg.RefreshInterval.Duration)
	}
	if cfg.HistoryCapacity != 7 {
		t.Errorf("HistoryCapacity = %d", cfg.HistoryCapacity)
	}
	if cfg.ReportFile != "out.db" || cfg.ReportFormat != "sqlite" || cfg.LogLevel != "warn" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
}

func TestEnvOverridesIgnoreMalformed(t *testing.T) {
	t.Setenv("PERF_PULSE_INTERVAL", "fast")
	t.Setenv("PERF_PULSE_CAPACITY", "many")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RefreshInterval.Duration != time.Second || cfg.HistoryCapacity != 100 {
		t.Errorf("malformed env should keep defaults, got %s / %d",
			cfg.RefreshInterval.Duration, cfg.HistoryCapacity)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero interval", func(c *Config) { c.RefreshInterval.Duration = 0 }, "refresh_interval"},
		{"window too long", func(c *Config) { c.CPUSampleWindow.Duration = 2 * time.Second }, "cpu_sample_window"},
		{"zero window", func(c *Config) { c.CPUSampleWindow.Duration = 0 }, "cpu_sample_window"},
		{"negative timeout", func(c *Config) { c.SensorTimeout.Duration = -time.Second }, "sensor_timeout"},
		{"zero capacity", func(c *Config) { c.HistoryCapacity = 0 }, "history_capacity"},
		{"blank report", func(c *Config) { c.ReportFile = "  " }, "report_file"},
		{"bad format", func(c *Config) { c.ReportFormat = "xlsx" }, "report_format"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"timeout disabled", func(c *Config) { c.SensorTimeout.Duration = 0 }, ""},
		{"upper case format", func(c *Config) { c.ReportFormat = "SQLite" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.RefreshInterval = Duration{500 * time.Millisecond}
	cfg.ReportFile = "saved.csv"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.RefreshInterval.Duration != 500*time.Millisecond {
		t.Errorf("RefreshInterval round trip = %s", loaded.RefreshInterval.Duration)
	}
	if loaded.ReportFile != "saved.csv" {
		t.Errorf("ReportFile round trip = %s", loaded.ReportFile)
	}
}

func TestXDGPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	paths := searchPaths()
	if len(paths) == 0 {
		t.Fatal("expected at least one search path")
	}
	want := filepath.Join(tmpDir, "perf-pulse", "config.yaml")
	if paths[0] != want {
		t.Errorf("first search path = %s, want %s", paths[0], want)
	}
}

func TestLoadUsesXDGConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	dir := filepath.Join(tmpDir, "perf-pulse")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("history_capacity: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HistoryCapacity != 9 {
		t.Errorf("HistoryCapacity = %d, want 9", cfg.HistoryCapacity)
	}
}

func TestLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	cfg := DefaultConfig()
	if got := cfg.LogPath(); got != "/var/state/perf-pulse/perf-pulse.log" {
		t.Errorf("LogPath() = %s", got)
	}
	cfg.LogFile = "/tmp/x.log"
	if got := cfg.LogPath(); got != "/tmp/x.log" {
		t.Errorf("LogPath() with explicit file = %s", got)
	}
}
