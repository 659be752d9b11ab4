package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the upper-case level name.
func (l Level) String() string { return levelNames[l] }

// ParseLevel maps a case-insensitive level name to a Level. Unknown names
// fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured JSON logging with optional redaction of chat
// identifiers and bot tokens.
type Logger struct {
	mu        sync.Mutex
	level     Level
	redactPII bool
	z         *zap.SugaredLogger
}

var defaultLogger = &Logger{level: INFO, redactPII: true, z: newProduction()}

func newProduction() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) {
	defaultLogger.mu.Lock()
	defaultLogger.level = l
	defaultLogger.mu.Unlock()
}

// SetRedactPII enables or disables redaction for the default logger.
func SetRedactPII(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactPII = r
	defaultLogger.mu.Unlock()
}

// SetCore replaces the zap core behind the default logger. Tests use it with
// zaptest/observer to capture entries.
func SetCore(core zapcore.Core) {
	defaultLogger.mu.Lock()
	defaultLogger.z = zap.New(core).Sugar()
	defaultLogger.mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	defaultLogger.mu.Lock()
	z := defaultLogger.z
	defaultLogger.mu.Unlock()
	_ = z.Sync()
}

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	l.mu.Lock()
	minLevel, redact, z := l.level, l.redactPII, l.z
	l.mu.Unlock()
	if level < minLevel {
		return
	}

	// Parse key-value pairs from fields
	kv := make([]interface{}, 0, len(fields))
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		if redact {
			val = redactValue(key, val)
		}
		kv = append(kv, key, val)
	}
	if redact {
		msg = RedactToken(msg)
	}

	switch level {
	case DEBUG:
		z.Debugw(msg, kv...)
	case INFO:
		z.Infow(msg, kv...)
	case WARN:
		z.Warnw(msg, kv...)
	default:
		z.Errorw(msg, kv...)
	}
}

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "chat") || strings.Contains(key, "contact") {
		return MaskID(val)
	}
	// Request URLs and provider errors can embed the bot token.
	return RedactToken(val)
}
