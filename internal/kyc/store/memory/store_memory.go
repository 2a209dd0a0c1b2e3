// Package memory provides the in-memory KYC store used by tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"fecgate/internal/kyc"
	id "fecgate/pkg/domain"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	verified map[id.ContributorID]time.Time
}

func New() *InMemoryStore {
	return &InMemoryStore{verified: make(map[id.ContributorID]time.Time)}
}

func (s *InMemoryStore) Status(ctx context.Context, contributorID id.ContributorID) (kyc.Status, error) {
	if err := ctx.Err(); err != nil {
		return kyc.Status{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.verified[contributorID]
	if !ok {
		return kyc.Status{ContributorID: contributorID}, nil
	}
	return kyc.Status{ContributorID: contributorID, Verified: true, VerifiedAt: &at}, nil
}

func (s *InMemoryStore) MarkVerified(ctx context.Context, contributorID id.ContributorID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Idempotent: the first verification time wins.
	if _, ok := s.verified[contributorID]; !ok {
		s.verified[contributorID] = at
	}
	return nil
}
