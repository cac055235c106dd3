package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks are the eighth-height block characters, lowest first. The chart
// uses them for the partial top cell of each column.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Scale is the value range a series is drawn against.
type Scale struct {
	Min float64
	Max float64
}

// Fixed reports whether the scale has an explicit range. A zero-width scale
// means auto-scale to the data.
func (s Scale) Fixed() bool {
	return s.Max > s.Min
}

// PercentScale is the fixed 0-100 range of the CPU and memory charts.
var PercentScale = Scale{Min: 0, Max: 100}

// resolve returns the range to draw data against. Auto-scaled flat series get
// a unit of headroom on each side so they render at mid height.
func (s Scale) resolve(data []float64) (lo, hi float64) {
	if s.Fixed() {
		return s.Min, s.Max
	}
	if len(data) == 0 {
		return 0, 1
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		if lo >= 0 && lo < 1 {
			return 0, lo + 1
		}
		return lo - 1, hi + 1
	}
	return lo, hi
}

// normalize maps v into [0, 1] against lo..hi.
func normalize(v, lo, hi float64) float64 {
	if hi <= lo || math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

// SparklineConfig controls a single-row sparkline.
type SparklineConfig struct {
	// Data points to render, most recent last.
	Data []float64
	// Width in cells. Zero means len(Data). Older points are dropped first.
	Width int
	// Scale to draw against. The zero value auto-scales.
	Scale Scale
	// Color of the blocks. Empty leaves them unstyled.
	Color lipgloss.Color
}

// RenderSparkline renders a one-line chart, right aligned so the newest value
// is always in the last cell.
func RenderSparkline(cfg SparklineConfig) string {
	if len(cfg.Data) == 0 {
		return ""
	}

	width := cfg.Width
	if width <= 0 {
		width = len(cfg.Data)
	}
	data := tail(cfg.Data, width)
	lo, hi := cfg.Scale.resolve(data)

	runes := make([]rune, 0, len(data))
	for _, v := range data {
		idx := int(math.Round(normalize(v, lo, hi) * float64(len(sparkBlocks)-1)))
		runes = append(runes, sparkBlocks[idx])
	}

	out := strings.Repeat(" ", width-len(data)) + string(runes)
	if cfg.Color != "" {
		out = lipgloss.NewStyle().Foreground(cfg.Color).Render(out)
	}
	return out
}

// tail returns the last n values of data.
func tail(data []float64, n int) []float64 {
	if n < len(data) {
		return data[len(data)-n:]
	}
	return data
}
