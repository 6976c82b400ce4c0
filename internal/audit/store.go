package audit

import (
	"context"
	"sync"
)

// EventStore persists audit events.
type EventStore interface {
	Insert(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// InMemoryEventStore keeps events in insertion order. Safe for
// concurrent use.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

func (s *InMemoryEventStore) Insert(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns the most recent events, newest first. limit <= 0 returns
// everything.
func (s *InMemoryEventStore) List(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
