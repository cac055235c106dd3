package format

import "fmt"

// TruncateWithEllipsis truncates s to maxWidth runes, ending in "..." when
// anything was cut. Below 4 runes there is no room for the suffix and the
// string is cut hard.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}

	if maxWidth < 4 {
		return string(runes[:maxWidth])
	}

	return string(runes[:maxWidth-3]) + "..."
}

// Quantiles renders a p50/p95/max triple of percentages, e.g.
// "p50 12.0  p95 48.5  max 97.1".
func Quantiles(p50, p95, maxVal float64) string {
	return fmt.Sprintf("p50 %.1f  p95 %.1f  max %.1f", p50, p95, maxVal)
}
