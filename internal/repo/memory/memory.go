package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
)

// Store keeps observations in process memory. Nothing survives a restart,
// so it only backs tests and throwaway runs.
type Store struct {
	mu      sync.RWMutex
	results []domain.Observation
	nextID  int64
}

var _ repo.ObservationStore = (*Store)(nil)

func New() *Store {
	return &Store{
		results: make([]domain.Observation, 0, 128),
		nextID:  1,
	}
}

func (m *Store) Init(ctx context.Context) error { return nil }

func (m *Store) Append(ctx context.Context, o *domain.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID
	m.nextID++
	m.results = append(m.results, *o)
	return nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.Observation, error) {
	if limit <= 0 {
		return []domain.Observation{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.results)
	if limit > n {
		limit = n
	}
	out := make([]domain.Observation, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}

func (m *Store) Close() error { return nil }
