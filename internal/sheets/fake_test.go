package sheets

import (
	"context"
	"sync"
)

// fakeValues is an in-memory ValuesAPI. Column-count ranges answer with
// filled[rng] placeholder rows; other reads answer from readBack.
type fakeValues struct {
	mu        sync.Mutex
	filled    map[string]int
	readBack  map[string][][]string
	getErr    map[string]error
	updateErr error
	batchErr  error

	gets     []string
	updates  map[string][][]string
	order    []string
	batches  [][]RangeValues
	onUpdate func(f *fakeValues, rng string)
}

func newFakeValues() *fakeValues {
	return &fakeValues{
		filled:   make(map[string]int),
		readBack: make(map[string][][]string),
		getErr:   make(map[string]error),
		updates:  make(map[string][][]string),
	}
}

func (f *fakeValues) Get(_ context.Context, _ string, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, rng)
	f.order = append(f.order, "get "+rng)
	if err := f.getErr[rng]; err != nil {
		return nil, err
	}
	if rows, ok := f.readBack[rng]; ok {
		return rows, nil
	}
	n := f.filled[rng]
	if n == 0 {
		return nil, nil
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	return rows, nil
}

func (f *fakeValues) Update(_ context.Context, _ string, rng string, values [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, "update "+rng)
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[rng] = values
	if f.onUpdate != nil {
		f.onUpdate(f, rng)
	}
	return nil
}

func (f *fakeValues) BatchUpdate(_ context.Context, _ string, data []RangeValues) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, "batch")
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, data)
	return nil
}
