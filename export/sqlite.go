package export

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

// SQLite writes the report into a `samples` table of an SQLite database.
// Like the CSV report, each export replaces the previous contents, inside a
// single transaction.
type SQLite struct {
	path string
}

// NewSQLite returns an SQLite exporter writing to the database file at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Path returns the database file.
func (s *SQLite) Path() string {
	return s.path
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS samples (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    time           TEXT NOT NULL,
    cpu_percent    REAL NOT NULL,
    memory_percent REAL NOT NULL,
    net_sent_mb    REAL NOT NULL,
    net_recv_mb    REAL NOT NULL
);
`

// Export implements Exporter.
func (s *SQLite) Export(ctx context.Context, samples []collectors.Sample) (Result, error) {
	if len(samples) == 0 {
		return Result{NoOp: true}, nil
	}

	// The modernc.org driver is pure Go and works without CGO.
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", s.path))
	if err != nil {
		return Result{}, wrapErr("open", s.path, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return Result{}, wrapErr("ping", s.path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return Result{}, wrapErr("create table in", s.path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, wrapErr("begin tx on", s.path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM samples`); err != nil {
		_ = tx.Rollback()
		return Result{}, wrapErr("clear", s.path, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (time, cpu_percent, memory_percent, net_sent_mb, net_recv_mb) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, wrapErr("prepare insert on", s.path, err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx,
			smp.Clock(),
			round2(smp.CPUPercent),
			round2(smp.MemoryPercent),
			round2(smp.NetSentMB),
			round2(smp.NetRecvMB),
		); err != nil {
			_ = tx.Rollback()
			return Result{}, wrapErr("insert into", s.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, wrapErr("commit", s.path, err)
	}
	return Result{Path: s.path, Rows: len(samples)}, nil
}

// round2 keeps the same two-decimal precision as the CSV report.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Compile-time interface compliance check.
var _ Exporter = (*SQLite)(nil)
