package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the dashboard.
const (
	colorCPU     = lipgloss.Color("#3B82F6") // Blue
	colorMemory  = lipgloss.Color("#22C55E") // Green
	colorNetSent = lipgloss.Color("#F97316") // Orange
	colorNetRecv = lipgloss.Color("#EF4444") // Red
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorDanger  = lipgloss.Color("#EF4444") // Red
)

// Styles used throughout the TUI.
var (
	styleHeader lipgloss.Style
	styleBrand  lipgloss.Style
	styleMuted  lipgloss.Style
	styleFooter lipgloss.Style
	styleError  lipgloss.Style
)

func init() {
	styleBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary).
		Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorMuted)

	styleMuted = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleFooter = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleError = lipgloss.NewStyle().
		Foreground(colorDanger)
}
