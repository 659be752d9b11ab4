// Package storage selects and builds the scan event store named by
// configuration, plus the optional S3 archive used before a clear.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"

	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
	"github.com/ignite/attendance-checkin/internal/repository/postgres"
	"github.com/ignite/attendance-checkin/internal/repository/sqlite"
	"github.com/ignite/attendance-checkin/internal/service/scan"
)

// Storage types accepted in storage.type.
const (
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeDynamoDB = "dynamodb"
)

// Storage is the configured event store. DB is set only for the Postgres
// backend, where it also serves advisory row locks. Archive and S3 are nil
// unless an archive bucket is configured.
type Storage struct {
	Events  scan.Repository
	Archive scan.Archiver
	DB      *sql.DB
	S3      *s3.Client
	Type    string

	ping    func(ctx context.Context) error
	closers []func() error
}

// New builds the event store for cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{Type: cfg.Type}

	switch cfg.Type {
	case TypeMemory, "":
		s.Type = TypeMemory
		s.Events = NewMemoryStore()

	case TypeSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.Events = repo
		s.ping = repo.Ping
		s.closers = append(s.closers, repo.Close)

	case TypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("storage type postgres requires DATABASE_URL")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s.DB = db
		s.Events = postgres.NewScanRepo(db)
		s.ping = db.PingContext
		s.closers = append(s.closers, db.Close)

	case TypeDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, cfg.AWSRegion, cfg.GetAWSProfile(), cfg.AccessKey, cfg.SecretKey)
		if err != nil {
			return nil, err
		}
		table := NewAWSStorage(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable)
		s.Events = table
		s.ping = table.Ping

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	if cfg.ArchiveBucket != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWSRegion, cfg.GetAWSProfile(), cfg.AccessKey, cfg.SecretKey)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.S3 = s3.NewFromConfig(awsCfg)
		s.Archive = NewS3Archiver(s.S3, cfg.ArchiveBucket)
	}

	logger.Info("event store ready", "type", cfg.Type, "archive", cfg.ArchiveBucket != "")
	return s, nil
}

// Ping reports whether the event store is reachable. The memory store
// always is.
func (s *Storage) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases database handles held by the store.
func (s *Storage) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
