package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ignite/attendance-checkin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: TypeMemory})
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.IsType(t, &MemoryStore{}, s.Events)
	assert.Nil(t, s.Archive)
	assert.Nil(t, s.DB)
	assert.Equal(t, TypeMemory, s.Type)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestNewSQLite(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{
		Type:       TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "scans.db"),
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Events.Record(context.Background(), "C-1", "Kim")
	assert.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Type: "cassandra"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Type: TypePostgres})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := m.Record(ctx, "C-1", "Kim")
	require.NoError(t, err)
	now = now.Add(-time.Hour)
	_, err = m.Record(ctx, "C-2", "Lee")
	require.NoError(t, err)

	from := time.Date(2025, 3, 13, 15, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	found, err := m.FindInWindow(ctx, "C-1", from, to)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Kim", found.Name)

	found, err = m.FindInWindow(ctx, "C-1", to, to.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, found)

	events, err := m.List(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "C-2", events[0].Code, "events are ordered by time")

	n, err := m.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err = m.List(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, events)
}
