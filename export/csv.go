package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

// CSV writes a comma-separated report with a header row. The file is
// replaced atomically: rows go to a temp file in the same directory which is
// renamed over the target only once fully written, so an interrupted export
// never leaves a truncated report behind.
type CSV struct {
	path string
}

// NewCSV returns a CSV exporter writing to path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Path returns the target file.
func (c *CSV) Path() string {
	return c.path
}

// Export implements Exporter.
func (c *CSV) Export(ctx context.Context, samples []collectors.Sample) (Result, error) {
	if len(samples) == 0 {
		return Result{NoOp: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, wrapErr("write", c.path, err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(c.path)+"-*")
	if err != nil {
		return Result{}, wrapErr("create temp for", c.path, err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any failure path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = tmp.Close()
		return Result{}, wrapErr("chmod temp for", c.path, err)
	}

	buf := bufio.NewWriter(tmp)
	w := csv.NewWriter(buf)
	if err := w.Write(Columns); err != nil {
		_ = tmp.Close()
		return Result{}, wrapErr("write header to", c.path, err)
	}
	for _, s := range samples {
		if err := w.Write(formatRow(s)); err != nil {
			_ = tmp.Close()
			return Result{}, wrapErr("write row to", c.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return Result{}, wrapErr("flush", c.path, err)
	}
	if err := buf.Flush(); err != nil {
		_ = tmp.Close()
		return Result{}, wrapErr("flush", c.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Result{}, wrapErr("sync", c.path, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, wrapErr("close temp for", c.path, err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		return Result{}, wrapErr("rename temp to", c.path, err)
	}

	success = true
	return Result{Path: c.path, Rows: len(samples)}, nil
}

// Compile-time interface compliance check.
var _ Exporter = (*CSV)(nil)
