package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/attendance-checkin/internal/domain"
)

// MemoryStore keeps scan events in process memory. Events are lost on
// restart; it exists for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []domain.ScanEvent
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) FindInWindow(_ context.Context, code string, from, to time.Time) (*domain.ScanEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.Code == code && inWindow(e.Timestamp, from, to) {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Record(_ context.Context, code, name string) (*domain.ScanEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := domain.ScanEvent{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		Timestamp: m.now().UTC(),
	}
	m.events = append(m.events, e)
	return &e, nil
}

func (m *MemoryStore) List(_ context.Context, from, to time.Time) ([]domain.ScanEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ScanEvent
	for _, e := range m.events {
		if inWindow(e.Timestamp, from, to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *MemoryStore) ClearAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.events)
	m.events = nil
	return n, nil
}

// inWindow reports from <= t < to; a zero bound is open.
func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
