package tui

import "github.com/charmbracelet/lipgloss"

// LayoutSize represents a responsive breakpoint for the terminal size.
type LayoutSize int

const (
	// LayoutCompact stacks the panels in one column. Used for terminals
	// narrower than 80 columns or shorter than 20 rows.
	LayoutCompact LayoutSize = iota
	// LayoutGrid arranges the panels two by two.
	LayoutGrid
)

// DetectLayout returns the appropriate LayoutSize for the given terminal size.
func DetectLayout(width, height int) LayoutSize {
	if width < 80 || height < 20 {
		return LayoutCompact
	}
	return LayoutGrid
}

// size is an outer panel size in cells.
type size struct {
	W, H int
}

// panelSizes splits the body area between n panels. Odd remainders go to
// the right column and bottom row so the panels exactly fill the area.
func panelSizes(layout LayoutSize, width, height, n int) []size {
	out := make([]size, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = size{width, height}
		return out
	}

	cols := 1
	if layout == LayoutGrid {
		cols = 2
	}
	rows := (n + cols - 1) / cols

	for i := range out {
		col, row := i%cols, i/cols
		w := width / cols
		if col == cols-1 {
			w = width - w*(cols-1)
		}
		h := height / rows
		if row == rows-1 {
			h = height - h*(rows-1)
		}
		out[i] = size{w, h}
	}
	return out
}

// arrange joins rendered panels into rows of cols.
func arrange(layout LayoutSize, panels []string) string {
	cols := 1
	if layout == LayoutGrid && len(panels) > 1 {
		cols = 2
	}
	var rows []string
	for i := 0; i < len(panels); i += cols {
		end := min(i+cols, len(panels))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, panels[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
