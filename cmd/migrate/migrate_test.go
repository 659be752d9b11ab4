package main

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.sql"), 0755))
	return dir
}

func TestMigrationFilesSorted(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"002_b.sql": "SELECT 2;",
		"001_a.sql": "SELECT 1;",
		"README.md": "notes",
		"010_c.sql": "SELECT 10;",
	})

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql", "010_c.sql"}, files)
}

func TestApplySkipsRecordedAndEmpty(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"001_scan_events.sql": "CREATE TABLE scan_events (id UUID);",
		"002_empty.sql":       "  \n",
		"003_index.sql":       "CREATE INDEX idx ON scan_events (id);",
	})
	files, err := migrationFiles(dir)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT filename FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).AddRow("001_scan_events.sql"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX idx ON scan_events (id);")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (filename) VALUES ($1)")).
		WithArgs("003_index.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, skipped, err := apply(db, dir, files)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 2, skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStopsAtFailure(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"001_bad.sql":  "CREATE TABLE broken (;",
		"002_next.sql": "SELECT 1;",
	})
	files, err := migrationFiles(dir)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT filename FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE broken (;")).
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	applied, _, err := apply(db, dir, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_bad.sql")
	assert.Equal(t, 0, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT tablename FROM pg_tables").
		WillReturnRows(sqlmock.NewRows([]string{"tablename"}).AddRow("scan_events").AddRow("schema_migrations"))

	tables, err := listTables(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"scan_events", "schema_migrations"}, tables)
}
