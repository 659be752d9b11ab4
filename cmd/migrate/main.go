// Command migrate applies migrations/*.sql to the Postgres event store.
//
//	migrate [--list] [DIR]
//
// Each file runs in its own transaction and is recorded in
// schema_migrations, so re-running only applies new files.
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
)

func fatal(msg string, fields ...interface{}) {
	logger.Error(msg, fields...)
	logger.Sync()
	os.Exit(1)
}

func main() {
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if cfg, err := config.LoadFromEnv("config/config.yaml"); err == nil {
			dsn = cfg.Storage.DatabaseURL
		}
	}
	if dsn == "" {
		fatal("DATABASE_URL is required")
	}

	dir := "migrations"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			dir = a
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fatal("connect failed", "error", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fatal("ping failed", "error", err)
	}
	logger.Info("connected to database")

	if listOnly {
		tables, err := listTables(db)
		if err != nil {
			fatal("listing tables failed", "error", err)
		}
		for _, t := range tables {
			fmt.Println(" ", t)
		}
		fmt.Printf("Total: %d tables\n", len(tables))
		return
	}

	files, err := migrationFiles(dir)
	if err != nil {
		fatal("reading migrations failed", "dir", dir, "error", err)
	}

	applied, skipped, err := apply(db, dir, files)
	logger.Info("migrations finished", "applied", applied, "skipped", skipped)
	if err != nil {
		fatal("migration failed", "error", err)
	}
}
