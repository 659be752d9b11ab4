package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindow(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// 23:30 UTC on Jan 4 is 08:30 on Jan 5 in Seoul.
	at := time.Date(2025, 1, 4, 23, 30, 0, 0, time.UTC)

	start, end := DayWindow(at, seoul)

	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, seoul), start)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, seoul), end)
	assert.True(t, !at.Before(start) && at.Before(end))
}

func TestDirectoryRow(t *testing.T) {
	var missing *DirectoryRow
	assert.False(t, missing.Registered())
	assert.False(t, missing.CanNotify())

	row := &DirectoryRow{Name: "  "}
	assert.False(t, row.Registered())

	row = &DirectoryRow{Name: "Kim", ContactID: "123"}
	assert.True(t, row.Registered())
	assert.False(t, row.CanNotify())

	row.MessageTemplate = "Welcome"
	assert.True(t, row.CanNotify())
}

func TestScanResultJSONOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(ScanResult{Success: false, IsDuplicate: true, Name: "Kim"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"isDuplicate":true,"name":"Kim"}`, string(data))
}
