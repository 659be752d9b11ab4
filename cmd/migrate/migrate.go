package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

const createTrackingTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    filename   TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// migrationFiles returns the non-empty .sql files in dir, sorted by name.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// apply runs every file not yet recorded in schema_migrations. It stops at
// the first failing file; earlier files stay applied.
func apply(db *sql.DB, dir string, files []string) (applied, skipped int, err error) {
	if _, err := db.Exec(createTrackingTable); err != nil {
		return 0, 0, fmt.Errorf("creating schema_migrations: %w", err)
	}

	done, err := appliedSet(db)
	if err != nil {
		return 0, 0, err
	}

	for _, f := range files {
		if done[f] {
			skipped++
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return applied, skipped, fmt.Errorf("reading %s: %w", f, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			skipped++
			continue
		}

		if err := applyOne(db, f, string(data)); err != nil {
			return applied, skipped, err
		}
		logger.Info("applied migration", "file", f)
		applied++
	}
	return applied, skipped, nil
}

func appliedSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		done[f] = true
	}
	return done, rows.Err()
}

func applyOne(db *sql.DB, name, content string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%s: begin: %w", name, err)
	}
	if _, err := tx.Exec(content); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", name, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (filename) VALUES ($1)", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: recording: %w", name, err)
	}
	return tx.Commit()
}

// listTables returns the scan tables present in the public schema.
func listTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT tablename FROM pg_tables WHERE schemaname='public' AND (tablename LIKE 'scan_%' OR tablename = 'schema_migrations') ORDER BY tablename")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
