package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/attendance-checkin/internal/domain"
)

// clearBatchSize bounds each DELETE issued by ClearAll.
const clearBatchSize = 500

// ScanRepo implements scan.Repository against PostgreSQL. Timestamps are
// assigned by the database clock.
type ScanRepo struct{ db *sql.DB }

// NewScanRepo creates a Postgres-backed scan event repository.
func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{db: db} }

func (r *ScanRepo) FindInWindow(ctx context.Context, code string, from, to time.Time) (*domain.ScanEvent, error) {
	var e domain.ScanEvent
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, scanned_at
		FROM scan_events
		WHERE code = $1 AND scanned_at >= $2 AND scanned_at < $3
		ORDER BY scanned_at
		LIMIT 1
	`, code, from.UTC(), to.UTC()).Scan(&e.ID, &e.Code, &e.Name, &e.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scan: %w", err)
	}
	return &e, nil
}

func (r *ScanRepo) Record(ctx context.Context, code, name string) (*domain.ScanEvent, error) {
	e := domain.ScanEvent{ID: uuid.New().String(), Code: code, Name: name}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO scan_events (id, code, name)
		VALUES ($1, $2, $3)
		RETURNING scanned_at
	`, e.ID, e.Code, e.Name).Scan(&e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	return &e, nil
}

func (r *ScanRepo) List(ctx context.Context, from, to time.Time) ([]domain.ScanEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, scanned_at
		FROM scan_events
		WHERE ($1::timestamptz IS NULL OR scanned_at >= $1)
		  AND ($2::timestamptz IS NULL OR scanned_at < $2)
		ORDER BY scanned_at
	`, bound(from), bound(to))
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var events []domain.ScanEvent
	for rows.Next() {
		var e domain.ScanEvent
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ClearAll deletes events in batches so a large history does not hold one
// long-running lock on the table.
func (r *ScanRepo) ClearAll(ctx context.Context) (int, error) {
	total := 0
	for {
		res, err := r.db.ExecContext(ctx, `
			DELETE FROM scan_events
			WHERE id IN (SELECT id FROM scan_events LIMIT $1)
		`, clearBatchSize)
		if err != nil {
			return total, fmt.Errorf("clear scans: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("clear scans: %w", err)
		}
		total += int(n)
		if n < clearBatchSize {
			return total, nil
		}
	}
}

func bound(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
