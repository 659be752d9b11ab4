package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/attendance-checkin/internal/api"
	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/ignite/attendance-checkin/internal/pkg/distlock"
	"github.com/ignite/attendance-checkin/internal/pkg/logger"
	"github.com/ignite/attendance-checkin/internal/service/scan"
	"github.com/ignite/attendance-checkin/internal/sheets"
	"github.com/ignite/attendance-checkin/internal/storage"
	"github.com/ignite/attendance-checkin/internal/telegram"
)

// rowLockTTL bounds how long a crashed writer can hold a sheet row lock.
const rowLockTTL = 30 * time.Second

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

// connectRedis returns nil when url is empty or the server does not answer.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, row locks fall back to postgres if available", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}

func fatal(msg string, fields ...interface{}) {
	logger.Error(msg, fields...)
	logger.Sync()
	os.Exit(1)
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		fatal("failed to load config", "path", configPath, "error", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())
	defer logger.Sync()

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		fatal("pre-flight check failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		fatal("failed to initialize storage", "type", cfg.Storage.Type, "error", err)
	}
	defer store.Close()

	values, err := sheets.NewGoogleValues(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.Timeout())
	if err != nil {
		fatal("failed to initialize Google Sheets client", "credentials", cfg.Sheets.CredentialsFile, "error", err)
	}
	if cfg.Sheets.SpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID is not set, scans will fail until it is configured")
	}

	loc := cfg.Scan.Location()
	directory := sheets.New(values, cfg.Sheets, loc)

	redisClient := connectRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Sheets.RowLock {
		switch {
		case redisClient != nil || store.DB != nil:
			directory.WithRowLocker(func(key string) distlock.DistLock {
				return distlock.NewLock(redisClient, store.DB, key, rowLockTTL)
			})
			logger.Info("sheet row lock enabled", "redis", redisClient != nil)
		default:
			logger.Warn("sheets.row_lock needs REDIS_URL or postgres storage, continuing without it")
		}
	}

	notifier := telegram.NewClient(cfg.Telegram)
	if cfg.Telegram.BotToken == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN is not set, notifications will report a configuration error")
	}

	svc := scan.NewService(store.Events, directory, notifier, loc)
	if store.Archive != nil {
		svc.WithArchiver(store.Archive)
	}

	deps := api.HealthDeps{
		EventStore:    store,
		StoreType:     store.Type,
		Redis:         redisClient,
		ArchiveBucket: cfg.Storage.ArchiveBucket,
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		BotToken:      cfg.Telegram.BotToken,
	}
	if store.S3 != nil {
		deps.S3 = store.S3
	}
	server := api.NewServer(cfg.Server, api.NewHandlers(svc), api.NewHealthChecker(deps))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("starting server", "addr", addr, "sheet", cfg.Sheets.SheetName, "timezone", loc.String())
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			fatal("server error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
