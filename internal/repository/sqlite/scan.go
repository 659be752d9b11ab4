// Package sqlite stores scan events in a local SQLite file. It backs
// single-terminal deployments that have no database server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/attendance-checkin/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_events (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL,
	name       TEXT NOT NULL,
	scanned_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_events_code_time ON scan_events (code, scanned_at);
CREATE INDEX IF NOT EXISTS idx_scan_events_time ON scan_events (scanned_at);
`

// ScanRepo implements scan.Repository on SQLite. scanned_at holds Unix
// nanoseconds so range comparisons are plain integer comparisons.
type ScanRepo struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*ScanRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &ScanRepo{db: db, now: time.Now}, nil
}

// Close closes the database.
func (r *ScanRepo) Close() error { return r.db.Close() }

// Ping checks that the database file is still usable.
func (r *ScanRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *ScanRepo) FindInWindow(ctx context.Context, code string, from, to time.Time) (*domain.ScanEvent, error) {
	var (
		e  domain.ScanEvent
		ns int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, scanned_at
		FROM scan_events
		WHERE code = ? AND scanned_at >= ? AND scanned_at < ?
		ORDER BY scanned_at
		LIMIT 1
	`, code, from.UnixNano(), to.UnixNano()).Scan(&e.ID, &e.Code, &e.Name, &ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scan: %w", err)
	}
	e.Timestamp = time.Unix(0, ns).UTC()
	return &e, nil
}

func (r *ScanRepo) Record(ctx context.Context, code, name string) (*domain.ScanEvent, error) {
	e := domain.ScanEvent{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		Timestamp: r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scan_events (id, code, name, scanned_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Code, e.Name, e.Timestamp.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	return &e, nil
}

func (r *ScanRepo) List(ctx context.Context, from, to time.Time) ([]domain.ScanEvent, error) {
	lo, hi := int64(0), int64(1<<63-1)
	if !from.IsZero() {
		lo = from.UnixNano()
	}
	if !to.IsZero() {
		hi = to.UnixNano()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, scanned_at
		FROM scan_events
		WHERE scanned_at >= ? AND scanned_at < ?
		ORDER BY scanned_at
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var events []domain.ScanEvent
	for rows.Next() {
		var (
			e  domain.ScanEvent
			ns int64
		)
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &ns); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Timestamp = time.Unix(0, ns).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *ScanRepo) ClearAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scan_events`)
	if err != nil {
		return 0, fmt.Errorf("clear scans: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear scans: %w", err)
	}
	return int(n), nil
}
