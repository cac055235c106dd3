package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Program runs the dashboard on the terminal until it is closed or its
// context is cancelled.
type Program struct {
	opts   Options
	logger *slog.Logger

	// Input and Output override the terminal. Nil uses stdin and stdout.
	Input  io.Reader
	Output io.Writer
}

// NewProgram returns a Program for the given options.
func NewProgram(opts Options, logger *slog.Logger) *Program {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Program{opts: opts, logger: logger}
}

// Run blocks until the user closes the dashboard or ctx is cancelled, both of
// which return nil. Any other terminal or render failure is returned.
func (p *Program) Run(ctx context.Context) error {
	zones := zone.New()
	defer zones.Close()

	opts := p.opts
	opts.Zones = zones
	onFrame := opts.OnFrame
	opts.OnFrame = func(frame int) {
		p.logger.Debug("frame rendered", "frame", frame)
		if onFrame != nil {
			onFrame(frame)
		}
	}

	progOpts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		// Signals are handled by the caller's context.
		tea.WithoutSignalHandler(),
	}
	if p.Input != nil {
		progOpts = append(progOpts, tea.WithInput(p.Input))
	}
	if p.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(p.Output))
	}

	p.logger.Info("dashboard starting", "refresh", opts.Refresh)
	final, err := tea.NewProgram(NewModel(opts), progOpts...).Run()

	frames := 0
	if m, ok := final.(Model); ok {
		frames = m.Frames()
	}

	switch {
	case err == nil:
		p.logger.Info("dashboard closed", "frames", frames)
		return nil
	case ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled):
		p.logger.Info("dashboard cancelled", "frames", frames)
		return nil
	default:
		return fmt.Errorf("tui: %w", err)
	}
}
