package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/perf-pulse/internal/format"
)

// Panel geometry: one border cell and one padding cell on each side.
const (
	panelChromeWidth  = 4
	panelChromeHeight = 2

	// MinPanelWidth and MinPanelHeight are the smallest outer sizes a panel
	// renders at. Callers asking for less get these.
	MinPanelWidth  = 20
	MinPanelHeight = 4
)

var (
	panelMuted   = lipgloss.Color("#6B7280")
	panelBorder  = lipgloss.RoundedBorder()
	panelTitle   = lipgloss.NewStyle().Bold(true)
	panelCaption = lipgloss.NewStyle().Foreground(panelMuted)
)

// PanelConfig describes one metric panel.
type PanelConfig struct {
	// Title shown at the top left, e.g. "CPU Usage (%)".
	Title string
	// Data is the rolling series, oldest first.
	Data []float64
	// Scale of the chart. PercentScale for utilization metrics.
	Scale Scale
	// Color of the title and bars.
	Color lipgloss.Color
	// Percent marks a utilization metric. It adds a gauge and colors the
	// current value by threshold.
	Percent bool
	// Subtitle is shown muted under the chart, e.g. lifetime quantiles.
	Subtitle string
	// Width and Height are the outer size including the border.
	Width  int
	Height int
	// Focused highlights the border.
	Focused bool
}

// RenderPanel renders a bordered panel with the title and latest value on
// the first line, an optional gauge, the chart, and the subtitle. The output
// is exactly Width by Height cells.
func RenderPanel(cfg PanelConfig) string {
	width := max(cfg.Width, MinPanelWidth)
	height := max(cfg.Height, MinPanelHeight)
	innerW := width - panelChromeWidth
	innerH := height - panelChromeHeight

	var lines []string
	lines = append(lines, panelHeader(cfg, innerW))

	if len(cfg.Data) == 0 {
		lines = append(lines, panelCaption.Render("waiting for data..."))
	} else {
		if cfg.Percent && innerH-len(lines) > 2 {
			last := cfg.Data[len(cfg.Data)-1]
			lines = append(lines, RenderGauge(GaugeConfig{
				Width:       max(innerW-5, 1),
				Percent:     last,
				ShowPercent: true,
			}))
		}

		reserved := 0
		if cfg.Subtitle != "" && innerH-len(lines) > 2 {
			reserved = 1
		}
		chartH := innerH - len(lines) - reserved
		switch {
		case chartH >= 2:
			showAxis := innerW-AxisWidth >= 10
			plotW := innerW
			if showAxis {
				plotW -= AxisWidth
			}
			lines = append(lines, RenderChart(ChartConfig{
				Data:     cfg.Data,
				Width:    plotW,
				Height:   chartH,
				Scale:    cfg.Scale,
				Color:    cfg.Color,
				HideAxis: !showAxis,
			}))
		case chartH == 1:
			lines = append(lines, RenderSparkline(SparklineConfig{
				Data:  cfg.Data,
				Width: innerW,
				Scale: cfg.Scale,
				Color: cfg.Color,
			}))
		}
		if reserved == 1 {
			lines = append(lines, panelCaption.Render(format.TruncateWithEllipsis(cfg.Subtitle, innerW)))
		}
	}

	border := panelMuted
	if cfg.Focused {
		border = cfg.Color
	}
	box := lipgloss.NewStyle().
		Border(panelBorder).
		BorderForeground(border).
		Padding(0, 1).
		Width(width - 2).
		Height(innerH).
		MaxHeight(height)

	return box.Render(strings.Join(lines, "\n"))
}

// panelHeader renders the title left and the latest value right.
func panelHeader(cfg PanelConfig, width int) string {
	title := panelTitle.Foreground(cfg.Color).Render(cfg.Title)

	value := "--"
	valueStyle := lipgloss.NewStyle().Bold(true)
	if n := len(cfg.Data); n > 0 {
		last := cfg.Data[n-1]
		value = fmt.Sprintf("%.2f", last)
		if cfg.Percent {
			valueStyle = valueStyle.Foreground(LevelColor(last, 0, 0))
		}
	}
	value = valueStyle.Render(value)

	gap := width - lipgloss.Width(title) - lipgloss.Width(value)
	if gap < 1 {
		return format.TruncateWithEllipsis(cfg.Title, width)
	}
	return title + strings.Repeat(" ", gap) + value
}
