package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func capture(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetCore(core)
	SetLevel(INFO)
	SetRedactPII(true)
	return logs
}

func TestLevelFiltering(t *testing.T) {
	logs := capture(t)

	Debug("hidden")
	Info("shown", "code", "USER-1")
	Error("failure")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0].Message)
	assert.Equal(t, "USER-1", entries[0].ContextMap()["code"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestRedaction(t *testing.T) {
	logs := capture(t)

	Warn("send failed for https://api.telegram.org/bot12345:AAE-xyz/sendMessage",
		"chat_id", "987654321",
		"url", "https://api.telegram.org/bot12345:AAE-xyz/sendMessage")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "send failed for https://api.telegram.org/bot***/sendMessage", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "***321", fields["chat_id"])
	assert.Equal(t, "https://api.telegram.org/bot***/sendMessage", fields["url"])
}

func TestRedactionDisabled(t *testing.T) {
	logs := capture(t)
	SetRedactPII(false)
	defer SetRedactPII(true)

	Info("raw", "chat_id", "987654321")

	assert.Equal(t, "987654321", logs.All()[0].ContextMap()["chat_id"])
}

func TestMaskID(t *testing.T) {
	assert.Equal(t, "***789", MaskID("123456789"))
	assert.Equal(t, "***", MaskID("12"))
	assert.Equal(t, "***", MaskID(""))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}
