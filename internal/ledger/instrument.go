package ledger

import (
	"context"
	"errors"
	"time"

	ledgermetrics "fecgate/internal/ledger/metrics"
	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
	"fecgate/pkg/platform/sentinel"
)

// instrumentedStore decorates a Store with outcome counters and latency
// histograms. Behavior passes through untouched.
type instrumentedStore struct {
	next Store
	m    *ledgermetrics.Metrics
}

// Instrument wraps store with metrics collection. A nil Metrics returns the
// store unchanged.
func Instrument(store Store, m *ledgermetrics.Metrics) Store {
	if m == nil {
		return store
	}
	return &instrumentedStore{next: store, m: m}
}

func (s *instrumentedStore) CumulativeTotal(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, scope Scope) (money.Cents, error) {
	start := time.Now()
	total, err := s.next.CumulativeTotal(ctx, contributorID, campaignID, scope)
	s.m.ObserveStoreLatency("cumulative_total", time.Since(start))
	return total, err
}

func (s *instrumentedStore) AppendUnderCap(ctx context.Context, c Contribution, capCents money.Cents, scope Scope) (*Entry, error) {
	start := time.Now()
	entry, err := s.next.AppendUnderCap(ctx, c, capCents, scope)
	s.m.ObserveStoreLatency("append", time.Since(start))

	switch {
	case err == nil:
		s.m.IncrementAppend("accepted")
	case errors.Is(err, sentinel.ErrOverCap):
		s.m.IncrementAppend("over_cap")
	case errors.Is(err, sentinel.ErrConflict):
		s.m.IncrementAppend("duplicate")
	default:
		s.m.IncrementAppend("error")
	}
	return entry, err
}

func (s *instrumentedStore) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	start := time.Now()
	entries, total, err := s.next.List(ctx, filter)
	s.m.ObserveStoreLatency("list", time.Since(start))
	return entries, total, err
}
