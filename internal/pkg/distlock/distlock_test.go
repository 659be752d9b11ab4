package distlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "sheet-row:abc:Users", time.Minute)
	second := NewRedisLock(client, "sheet-row:abc:Users", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire a held lock")

	// Releasing someone else's lock is a no-op.
	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLock_PrefersRedis(t *testing.T) {
	client := newRedis(t)
	l := NewLock(client, nil, "k", time.Second)
	_, isRedis := l.(*RedisLock)
	assert.True(t, isRedis)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	l = NewLock(nil, db, "k", time.Second)
	_, isPG := l.(*PGAdvisoryLock)
	assert.True(t, isPG)
}

func TestHold_RunsAndReleases(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	l := NewRedisLock(client, "hold", time.Minute)

	ran := false
	err := Hold(ctx, l, time.Second, 10*time.Millisecond, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// Released: another owner can take it immediately.
	ok, err := NewRedisLock(client, "hold", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHold_TimesOutWhenHeld(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	holder := NewRedisLock(client, "busy", time.Minute)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	err = Hold(ctx, NewRedisLock(client, "busy", time.Minute), 30*time.Millisecond, 10*time.Millisecond, func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.True(t, errors.Is(err, ErrNotAcquired))
}

func TestHold_PropagatesFnError(t *testing.T) {
	client := newRedis(t)
	boom := errors.New("boom")

	err := Hold(context.Background(), NewRedisLock(client, "fn", time.Minute), time.Second, 10*time.Millisecond, func() error {
		return boom
	})
	assert.Equal(t, boom, err)
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "sheet-row:abc:Users")

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_NotAcquired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "k")
	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	// Nothing to release.
	require.NoError(t, l.Release(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
