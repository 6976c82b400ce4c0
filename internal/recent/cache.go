// Package recent keeps the bounded history of past verification lookups.
// It is a display aid, not an index: append-then-trim, most recent first,
// entries immutable after insertion, no search.
package recent

import (
	"context"
	"sync"

	"agritrace/internal/domain"
)

// Cache records lookup outcomes, found or not, and lists them newest first.
type Cache interface {
	Record(ctx context.Context, entry domain.RecentLookupEntry) error
	List(ctx context.Context) ([]domain.RecentLookupEntry, error)
}

// Memory is the in-process implementation: insert at front, truncate to the
// bound.
type Memory struct {
	mu      sync.RWMutex
	bound   int
	entries []domain.RecentLookupEntry
}

func NewMemory() *Memory {
	return &Memory{bound: domain.RecentLookupBound}
}

func (m *Memory) Record(_ context.Context, entry domain.RecentLookupEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]domain.RecentLookupEntry{entry}, m.entries...)
	if len(m.entries) > m.bound {
		m.entries = m.entries[:m.bound]
	}
	return nil
}

func (m *Memory) List(_ context.Context) ([]domain.RecentLookupEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.RecentLookupEntry{}, m.entries...), nil
}
