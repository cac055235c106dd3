// Package export writes the event log to durable storage at shutdown or on
// demand. CSV is the default format; SQLite is available for users who want
// to query a long session afterwards.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

// ErrExport wraps every I/O failure during an export.
var ErrExport = errors.New("export failed")

// Format names.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// DefaultPath is the report file written when none is configured.
const DefaultPath = "report.csv"

// Columns is the header row of a tabular report, in field order.
var Columns = []string{"Time", "CPU (%)", "Memory (%)", "Net Sent (MB)", "Net Recv (MB)"}

// Result describes a finished export.
type Result struct {
	// Path is the file that was written. Empty for a no-op.
	Path string
	// Rows is the number of samples written.
	Rows int
	// NoOp is true when the log was empty and nothing was written.
	NoOp bool
}

// String returns a short human-readable description.
func (r Result) String() string {
	if r.NoOp {
		return "no performance data to export"
	}
	return fmt.Sprintf("exported %d samples to %s", r.Rows, r.Path)
}

// Exporter serializes an ordered sequence of samples.
type Exporter interface {
	// Export writes samples. An empty slice is a no-op, not an error.
	// Failures wrap ErrExport.
	Export(ctx context.Context, samples []collectors.Sample) (Result, error)
}

// New returns the Exporter for format writing to path.
func New(format, path string) (Exporter, error) {
	if path == "" {
		path = DefaultPath
	}
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return NewCSV(path), nil
	case FormatSQLite:
		return NewSQLite(path), nil
	default:
		return nil, fmt.Errorf("export: unknown format %q (supported: csv, sqlite)", format)
	}
}

// formatRow renders one sample as report fields with two decimal places.
func formatRow(s collectors.Sample) []string {
	return []string{
		s.Clock(),
		fmt.Sprintf("%.2f", s.CPUPercent),
		fmt.Sprintf("%.2f", s.MemoryPercent),
		fmt.Sprintf("%.2f", s.NetSentMB),
		fmt.Sprintf("%.2f", s.NetRecvMB),
	}
}

func wrapErr(op, path string, err error) error {
	return fmt.Errorf("export: %s %s: %w: %w", op, path, ErrExport, err)
}
