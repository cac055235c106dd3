package widgets

import (
	"github.com/charmbracelet/lipgloss"
)

// StatusLevel is the state of the footer status indicator.
type StatusLevel int

const (
	// StatusPending means no sample has arrived yet.
	StatusPending StatusLevel = iota
	// StatusOK means samples are arriving on schedule.
	StatusOK
	// StatusStale means the newest sample is older than a few periods.
	StatusStale
	// StatusError means the last operation shown failed.
	StatusError
)

var statusIcons = map[StatusLevel]string{
	StatusPending: "◌",
	StatusOK:      "●",
	StatusStale:   "●",
	StatusError:   "●",
}

var statusColors = map[StatusLevel]lipgloss.Color{
	StatusPending: lipgloss.Color("#3B82F6"),
	StatusOK:      ColorOK,
	StatusStale:   ColorWarn,
	StatusError:   ColorDanger,
}

// String returns the lower-case level name.
func (l StatusLevel) String() string {
	switch l {
	case StatusPending:
		return "waiting"
	case StatusOK:
		return "live"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// RenderStatus renders a colored dot followed by text. Empty text renders the
// level name.
func RenderStatus(level StatusLevel, text string) string {
	if text == "" {
		text = level.String()
	}
	icon := lipgloss.NewStyle().Foreground(statusColors[level]).Render(statusIcons[level])
	return icon + " " + text
}
