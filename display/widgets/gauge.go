package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Utilization thresholds at which a gauge turns yellow and red.
const (
	DefaultWarnPercent   = 70.0
	DefaultDangerPercent = 90.0
)

// Gauge colors, shared with the dashboard theme.
const (
	ColorOK     = lipgloss.Color("#22C55E")
	ColorWarn   = lipgloss.Color("#EAB308")
	ColorDanger = lipgloss.Color("#EF4444")
)

// GaugeConfig controls a horizontal utilization bar.
type GaugeConfig struct {
	// Width of the bar in cells, excluding the percentage text.
	Width int
	// Percent filled, clamped to 0-100.
	Percent float64
	// ShowPercent appends "NN%" after the bar.
	ShowPercent bool
	// Warn and Danger are the thresholds in percent. Zero uses the defaults.
	Warn   float64
	Danger float64
}

// LevelColor returns the threshold color for a utilization percentage.
func LevelColor(percent, warn, danger float64) lipgloss.Color {
	if warn <= 0 {
		warn = DefaultWarnPercent
	}
	if danger <= 0 {
		danger = DefaultDangerPercent
	}
	switch {
	case percent >= danger:
		return ColorDanger
	case percent >= warn:
		return ColorWarn
	default:
		return ColorOK
	}
}

// RenderGauge renders a bar like "██████░░░░  60%". NaN renders as empty.
func RenderGauge(cfg GaugeConfig) string {
	percent := cfg.Percent
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = math.Max(0, math.Min(100, percent))

	width := cfg.Width
	if width <= 0 {
		width = 20
	}

	filled := int(math.Round(percent / 100 * float64(width)))
	style := lipgloss.NewStyle().Foreground(LevelColor(percent, cfg.Warn, cfg.Danger))

	var sb strings.Builder
	sb.WriteString(style.Render(strings.Repeat("█", filled)))
	sb.WriteString(strings.Repeat("░", width-filled))
	if cfg.ShowPercent {
		fmt.Fprintf(&sb, " %3.0f%%", percent)
	}
	return sb.String()
}
