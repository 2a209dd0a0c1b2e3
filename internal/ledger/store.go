package ledger

import (
	"context"

	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
)

// Store persists accepted contributions. Implementations must provide
// per-contributor serializability for AppendUnderCap: two concurrent appends
// for the same contributor must never both observe the same prior total and
// both commit past the cap. Appends for different contributors must not
// contend on a shared lock.
//
// Stores return sentinel errors for factual outcomes:
//   - sentinel.ErrConflict: the exact (contributor, campaign, amount,
//     submitted_at) tuple was already recorded (duplicate form POST)
//   - sentinel.ErrOverCap: the conditional append was refused because the
//     resulting total would exceed the cap
//
// A failed query is an error, never an empty result: "contributor has no
// contributions" and "the database is unreachable" are different answers.
type Store interface {
	// CumulativeTotal returns the exact sum of accepted contributions for
	// the contributor within scope. Zero with nil error for contributors
	// with no accepted entries.
	CumulativeTotal(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, scope Scope) (money.Cents, error)

	// AppendUnderCap atomically appends the contribution iff the duplicate
	// guard passes and (current total + amount) <= capCents within scope. This is
	// the only writer of ledger state.
	AppendUnderCap(ctx context.Context, c Contribution, capCents money.Cents, scope Scope) (*Entry, error)

	// List returns accepted entries matching the filter, newest first,
	// along with the total match count for pagination.
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)
}
