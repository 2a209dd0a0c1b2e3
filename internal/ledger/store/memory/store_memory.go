// Package memory provides the in-memory ledger store used by tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fecgate/internal/ledger"
	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
	"fecgate/pkg/platform/sentinel"
)

// InMemoryStore keeps accepted entries per contributor with per-contributor
// locking: the read-check-append sequence in AppendUnderCap holds only that
// contributor's lock, so unrelated contributors never contend.
type InMemoryStore struct {
	mu     sync.RWMutex // guards the contributors map itself
	byKey  map[id.ContributorID]*contributorLedger
	tuples map[tupleKey]struct{}
}

type contributorLedger struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

type tupleKey struct {
	contributor id.ContributorID
	campaign    id.CampaignID
	amount      money.Cents
	submittedAt int64 // unix nanos; time.Time is not comparable across monotonic clocks
}

func New() *InMemoryStore {
	return &InMemoryStore{
		byKey:  make(map[id.ContributorID]*contributorLedger),
		tuples: make(map[tupleKey]struct{}),
	}
}

func (s *InMemoryStore) ledgerFor(contributorID id.ContributorID) *contributorLedger {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.byKey[contributorID]
	if !ok {
		cl = &contributorLedger{}
		s.byKey[contributorID] = cl
	}
	return cl
}

func (s *InMemoryStore) CumulativeTotal(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, scope ledger.Scope) (money.Cents, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	cl, ok := s.byKey[contributorID]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	return sumInScope(cl.entries, campaignID, scope), nil
}

func (s *InMemoryStore) AppendUnderCap(ctx context.Context, c ledger.Contribution, capCents money.Cents, scope ledger.Scope) (*ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cl := s.ledgerFor(c.ContributorID)
	cl.mu.Lock()
	defer cl.mu.Unlock()

	key := tupleKey{
		contributor: c.ContributorID,
		campaign:    c.CampaignID,
		amount:      c.Amount,
		submittedAt: c.SubmittedAt.UnixNano(),
	}

	// Duplicate guard runs before the cap check so a resubmitted accepted
	// contribution reports "already processed" rather than "over cap".
	s.mu.Lock()
	_, dup := s.tuples[key]
	s.mu.Unlock()
	if dup {
		return nil, sentinel.ErrConflict
	}

	if sumInScope(cl.entries, c.CampaignID, scope)+c.Amount > capCents {
		return nil, sentinel.ErrOverCap
	}

	entry := ledger.Entry{
		ID:              id.NewEntryID(),
		TransactionCode: ledger.NewTransactionCode(),
		Contribution:    c,
		RecordedAt:      time.Now().UTC(),
	}
	cl.entries = append(cl.entries, entry)

	s.mu.Lock()
	s.tuples[key] = struct{}{}
	s.mu.Unlock()

	return &entry, nil
}

func (s *InMemoryStore) List(ctx context.Context, filter ledger.ListFilter) ([]ledger.Entry, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	ledgers := make([]*contributorLedger, 0, len(s.byKey))
	for cid, cl := range s.byKey {
		if !filter.ContributorID.IsZero() && cid != filter.ContributorID {
			continue
		}
		ledgers = append(ledgers, cl)
	}
	s.mu.RUnlock()

	var matched []ledger.Entry
	for _, cl := range ledgers {
		cl.mu.Lock()
		for _, e := range cl.entries {
			if !filter.CampaignID.IsNil() && e.CampaignID != filter.CampaignID {
				continue
			}
			matched = append(matched, e)
		}
		cl.mu.Unlock()
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].RecordedAt.After(matched[j].RecordedAt)
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []ledger.Entry{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func sumInScope(entries []ledger.Entry, campaignID id.CampaignID, scope ledger.Scope) money.Cents {
	var sum money.Cents
	for _, e := range entries {
		if scope.PerCampaign() && e.CampaignID != campaignID {
			continue
		}
		sum += e.Amount
	}
	return sum
}
