package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zone names resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Scan     ScanConfig     `yaml:"scan"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// SheetsConfig holds the directory spreadsheet settings.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
	StartRow        int    `yaml:"start_row"`
	CredentialsFile string `yaml:"credentials_file"`
	SettleMillis    int    `yaml:"settle_millis"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	// RowLock serializes next-row discovery across processes. Requires Redis
	// or a Postgres event store.
	RowLock bool `yaml:"row_lock"`
}

// SettleDelay returns how long to wait for formula columns after a write.
func (c SheetsConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}

// Timeout returns the configured timeout as a duration
func (c SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TelegramConfig holds Telegram Bot API configuration
type TelegramConfig struct {
	BotToken       string `yaml:"bot_token"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c TelegramConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig selects and configures the scan event store.
type StorageConfig struct {
	Type          string `yaml:"type"` // "memory", "sqlite", "postgres", "dynamodb"
	SQLitePath    string `yaml:"sqlite_path"`
	DatabaseURL   string `yaml:"database_url"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	ArchiveBucket string `yaml:"archive_bucket"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// RedisConfig holds Redis connection settings used for row locks.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ScanConfig holds scan pipeline settings.
type ScanConfig struct {
	// TimeZone bounds the duplicate window and formats sheet timestamps.
	TimeZone string `yaml:"timezone"`
}

// Location loads the configured time zone, falling back to UTC when the
// zone name is unknown. Load and LoadFromEnv reject unknown zones, so the
// fallback only applies to hand-built configs.
func (c ScanConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether identifiers should be masked in logs (default true).
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file. A missing file yields the
// defaults so the service can be configured purely from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects settings that would otherwise be silently replaced.
func validate(cfg *Config) error {
	if _, err := time.LoadLocation(cfg.Scan.TimeZone); err != nil {
		return fmt.Errorf("scan.timezone %q: %w", cfg.Scan.TimeZone, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "Users"
	}
	if cfg.Sheets.StartRow <= 0 {
		cfg.Sheets.StartRow = 1
	}
	if cfg.Sheets.CredentialsFile == "" {
		cfg.Sheets.CredentialsFile = "private_key.json"
	}
	if cfg.Sheets.SettleMillis == 0 {
		cfg.Sheets.SettleMillis = 500
	}
	if cfg.Sheets.TimeoutSeconds == 0 {
		cfg.Sheets.TimeoutSeconds = 30
	}
	if cfg.Telegram.BaseURL == "" {
		cfg.Telegram.BaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.TimeoutSeconds == 0 {
		cfg.Telegram.TimeoutSeconds = 15
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "scans.db"
	}
	if cfg.Storage.DynamoDBTable == "" {
		cfg.Storage.DynamoDBTable = "scans"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "ap-northeast-2"
	}
	if cfg.Scan.TimeZone == "" {
		cfg.Scan.TimeZone = "Asia/Seoul"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Directory spreadsheet
	if v := os.Getenv("GOOGLE_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_SHEET_NAME"); v != "" {
		cfg.Sheets.SheetName = v
	}
	if v := os.Getenv("GOOGLE_SHEET_START_ROW"); v != "" {
		if row, err := strconv.Atoi(v); err == nil && row > 0 {
			cfg.Sheets.StartRow = row
		}
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.Sheets.CredentialsFile = v
	}

	// Telegram
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_BASE_URL"); v != "" {
		cfg.Telegram.BaseURL = v
	}

	// Storage
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
		if os.Getenv("STORAGE_TYPE") == "" {
			cfg.Storage.Type = "postgres"
		}
	}
	if v := os.Getenv("SCAN_ARCHIVE_BUCKET"); v != "" {
		cfg.Storage.ArchiveBucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	if v := os.Getenv("SCAN_TIMEZONE"); v != "" {
		cfg.Scan.TimeZone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
