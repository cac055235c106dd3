// Package tui implements the interactive dashboard: four live panels
// redrawn on a fixed cadence from copies of the history store.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/perf-pulse/display/widgets"
	"gitlab.com/tinyland/lab/perf-pulse/export"
	"gitlab.com/tinyland/lab/perf-pulse/history"
	"gitlab.com/tinyland/lab/perf-pulse/internal/format"
)

// DefaultRefresh is the redraw period used when none is configured.
const DefaultRefresh = time.Second

// staleAfter is how many refresh periods may pass without a new sample
// before the status indicator turns stale.
const staleAfter = 3

// SnapshotSource provides copies of the rolling series. *history.Store
// satisfies it.
type SnapshotSource interface {
	Snapshot() history.Snapshot
}

// ExportFunc writes the current event log on demand.
type ExportFunc func(ctx context.Context) (export.Result, error)

// Options configures the dashboard.
type Options struct {
	// Source is read once per refresh period.
	Source SnapshotSource
	// Refresh is the redraw period. Zero uses DefaultRefresh.
	Refresh time.Duration
	// Export is invoked by the export key. Nil disables the key.
	Export ExportFunc
	// OnFrame is called after each periodic redraw with the frame count.
	OnFrame func(frame int)
	// Zones enables mouse selection of panels. Nil disables it.
	Zones *zone.Manager
	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time
}

// panelID identifies one of the four metric panels.
type panelID int

const (
	panelCPU panelID = iota
	panelMemory
	panelNetSent
	panelNetRecv
	panelCount // sentinel for wrapping
)

// panelDef is the static description of a panel.
type panelDef struct {
	zoneID  string
	title   string
	color   lipgloss.Color
	percent bool
	series  func(history.Snapshot) []float64
	stats   func(history.Snapshot) history.Quantiles
}

var panelDefs = [panelCount]panelDef{
	panelCPU: {
		zoneID:  "panel-cpu",
		title:   "CPU Usage (%)",
		color:   colorCPU,
		percent: true,
		series:  func(s history.Snapshot) []float64 { return s.CPU },
		stats:   func(s history.Snapshot) history.Quantiles { return s.Stats.CPU },
	},
	panelMemory: {
		zoneID:  "panel-memory",
		title:   "Memory Usage (%)",
		color:   colorMemory,
		percent: true,
		series:  func(s history.Snapshot) []float64 { return s.Memory },
		stats:   func(s history.Snapshot) history.Quantiles { return s.Stats.Memory },
	},
	panelNetSent: {
		zoneID: "panel-net-sent",
		title:  "Network Sent (MB)",
		color:  colorNetSent,
		series: func(s history.Snapshot) []float64 { return s.NetSent },
	},
	panelNetRecv: {
		zoneID: "panel-net-recv",
		title:  "Network Received (MB)",
		color:  colorNetRecv,
		series: func(s history.Snapshot) []float64 { return s.NetRecv },
	},
}

// tickMsg triggers a snapshot and redraw.
type tickMsg time.Time

// exportDoneMsg carries the result of an on-demand export.
type exportDoneMsg struct {
	result export.Result
	err    error
}

// Model is the top-level Bubbletea model for the perf-pulse dashboard.
type Model struct {
	opts Options

	snap      history.Snapshot
	frames    int
	started   time.Time
	width     int
	height    int
	ready     bool
	focus     panelID
	maximized bool
	help      help.Model

	exporting bool
	notice    string
	noticeErr bool
}

// NewModel returns an initialized Model with the CPU panel focused.
func NewModel(opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		opts:    opts,
		started: opts.Now(),
		help:    help.New(),
	}
}

// Frames returns the number of periodic redraws so far.
func (m Model) Frames() int {
	return m.frames
}

// Init implements tea.Model. The first snapshot is taken immediately.
func (m Model) Init() tea.Cmd {
	now := m.opts.Now
	return func() tea.Msg { return tickMsg(now()) }
}

// tick schedules the next redraw one refresh period from now.
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.opts.Source != nil {
			m.snap = m.opts.Source.Snapshot()
		}
		m.frames++
		if m.opts.OnFrame != nil {
			m.opts.OnFrame(m.frames)
		}
		return m, m.tick()

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.notice, m.noticeErr = fmt.Sprintf("export failed: %v", msg.err), true
		} else {
			m.notice, m.noticeErr = msg.result.String(), false
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Export):
			return m.startExport()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Next):
			m.focus = (m.focus + 1) % panelCount
		case key.Matches(msg, keys.Prev):
			m.focus = (m.focus - 1 + panelCount) % panelCount
		case key.Matches(msg, keys.Maximize):
			m.maximized = !m.maximized
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			if id, ok := m.panelAt(msg); ok {
				m.selectPanel(id)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
	}

	return m, nil
}

// selectPanel maximizes the given panel, or restores the grid when it is
// already the maximized one.
func (m *Model) selectPanel(id panelID) {
	if m.maximized && m.focus == id {
		m.maximized = false
		return
	}
	m.focus = id
	m.maximized = true
}

// panelAt returns the panel under a mouse event.
func (m Model) panelAt(msg tea.MouseMsg) (panelID, bool) {
	if m.opts.Zones == nil {
		return 0, false
	}
	for id := panelID(0); id < panelCount; id++ {
		if z := m.opts.Zones.Get(panelDefs[id].zoneID); z != nil && z.InBounds(msg) {
			return id, true
		}
	}
	return 0, false
}

// startExport runs the injected export off the event loop.
func (m Model) startExport() (tea.Model, tea.Cmd) {
	if m.opts.Export == nil {
		m.notice, m.noticeErr = "export unavailable", true
		return m, nil
	}
	if m.exporting {
		return m, nil
	}
	m.exporting = true
	m.notice, m.noticeErr = "exporting...", false

	run := m.opts.Export
	return m, func() tea.Msg {
		res, err := run(context.Background())
		return exportDoneMsg{result: res, err: err}
	}
}

// View implements tea.Model. It renders the header, panels, and footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	view := lipgloss.JoinVertical(lipgloss.Left, header, m.renderPanels(bodyHeight), footer)
	if m.opts.Zones != nil {
		view = m.opts.Zones.Scan(view)
	}
	return view
}

// renderHeader renders the title bar with uptime and sample count.
func (m Model) renderHeader() string {
	uptime := format.FormatDuration(m.opts.Now().Sub(m.started))
	info := styleMuted.Render(fmt.Sprintf("  up %s  samples %d", uptime, m.snap.Count))
	return styleHeader.Width(m.width).Render(styleBrand.Render("perf-pulse") + info)
}

// renderPanels lays out the four panels, or only the focused one when
// maximized.
func (m Model) renderPanels(height int) string {
	ids := make([]panelID, 0, panelCount)
	if m.maximized {
		ids = append(ids, m.focus)
	} else {
		for id := panelID(0); id < panelCount; id++ {
			ids = append(ids, id)
		}
	}

	layout := DetectLayout(m.width, m.height)
	sizes := panelSizes(layout, m.width, height, len(ids))

	rendered := make([]string, len(ids))
	for i, id := range ids {
		rendered[i] = m.renderPanel(id, sizes[i])
	}
	return arrange(layout, rendered)
}

func (m Model) renderPanel(id panelID, sz size) string {
	def := panelDefs[id]
	cfg := widgets.PanelConfig{
		Title:   def.title,
		Data:    def.series(m.snap),
		Color:   def.color,
		Percent: def.percent,
		Width:   sz.W,
		Height:  sz.H,
		Focused: id == m.focus,
	}
	if def.percent {
		cfg.Scale = widgets.PercentScale
		if q := def.stats(m.snap); q.Count > 0 {
			cfg.Subtitle = format.Quantiles(q.P50, q.P95, q.Max)
		}
	} else {
		cfg.Subtitle = "cumulative since boot"
	}

	out := widgets.RenderPanel(cfg)
	if m.opts.Zones != nil {
		out = m.opts.Zones.Mark(def.zoneID, out)
	}
	return out
}

// statusLevel classifies the freshness of the latest sample.
func (m Model) statusLevel() (widgets.StatusLevel, string) {
	if m.snap.Empty() {
		return widgets.StatusPending, ""
	}
	now := m.opts.Now()
	last := m.snap.Latest.Time
	if now.Sub(last) > staleAfter*m.opts.Refresh {
		return widgets.StatusStale, "last sample " + format.FormatTimeSince(last, now)
	}
	return widgets.StatusOK, "live " + m.snap.Latest.Clock()
}

// renderFooter renders the status indicator, export notice and key help.
func (m Model) renderFooter() string {
	level, text := m.statusLevel()
	parts := []string{widgets.RenderStatus(level, text)}
	if m.notice != "" {
		if m.noticeErr {
			parts = append(parts, styleError.Render(m.notice))
		} else {
			parts = append(parts, m.notice)
		}
	}
	parts = append(parts, m.help.View(keys))

	return styleFooter.Width(m.width).Render(strings.Join(parts, "  "))
}
