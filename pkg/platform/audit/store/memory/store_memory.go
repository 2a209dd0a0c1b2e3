package memory

import (
	"context"
	"sync"

	id "fecgate/pkg/domain"
	audit "fecgate/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ContributorID][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ContributorID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.ContributorID][]audit.Event)
	s.order = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ContributorID] = append(s.events[event.ContributorID], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByContributor(_ context.Context, contributorID id.ContributorID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[contributorID]...), nil
}

// ListRecent returns the most recent N events across all contributors.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	recent := make([]audit.Event, 0, limit)
	for i := len(s.order) - 1; i >= len(s.order)-limit; i-- {
		recent = append(recent, s.order[i])
	}
	return recent, nil
}
