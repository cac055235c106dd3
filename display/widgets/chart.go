package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChartConfig controls a multi-row bar chart.
type ChartConfig struct {
	// Data points to render, most recent last.
	Data []float64
	// Width of the plot area in cells, excluding the axis.
	Width int
	// Height of the plot area in rows.
	Height int
	// Scale to draw against. The zero value auto-scales to the visible data.
	Scale Scale
	// Color of the bars.
	Color lipgloss.Color
	// HideAxis drops the value labels on the left.
	HideAxis bool
}

// axisStyle renders the y-axis labels and rule.
var axisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

// RenderChart renders data as vertical bars, one column per point, with eighth
// block resolution on the top cell. The newest point is in the rightmost
// column and missing history is left blank. The result is exactly Height
// lines.
func RenderChart(cfg ChartConfig) string {
	width := max(cfg.Width, 1)
	height := max(cfg.Height, 1)

	data := tail(cfg.Data, width)
	lo, hi := cfg.Scale.resolve(data)
	pad := width - len(data)

	// Eighths of a cell filled per column.
	levels := make([]int, len(data))
	for i, v := range data {
		levels[i] = int(math.Round(normalize(v, lo, hi) * float64(height*8)))
	}

	barStyle := lipgloss.NewStyle()
	if cfg.Color != "" {
		barStyle = barStyle.Foreground(cfg.Color)
	}

	lines := make([]string, height)
	var row strings.Builder
	for r := 0; r < height; r++ {
		floor := (height - 1 - r) * 8

		row.Reset()
		row.WriteString(strings.Repeat(" ", pad))
		for _, lvl := range levels {
			fill := lvl - floor
			switch {
			case fill <= 0:
				row.WriteByte(' ')
			case fill >= 8:
				row.WriteRune(sparkBlocks[7])
			default:
				row.WriteRune(sparkBlocks[fill-1])
			}
		}
		line := barStyle.Render(row.String())

		if !cfg.HideAxis {
			label := ""
			switch r {
			case 0:
				label = axisLabel(hi)
			case height - 1:
				label = axisLabel(lo)
			}
			line = axisStyle.Render(fmt.Sprintf("%*s ┤", axisLabelWidth, label)) + line
		}
		lines[r] = line
	}
	return strings.Join(lines, "\n")
}

const axisLabelWidth = 7

// AxisWidth is the number of cells the y-axis takes left of the plot area.
const AxisWidth = axisLabelWidth + 2

func axisLabel(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e7 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
