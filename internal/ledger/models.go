// Package ledger is the authoritative append-only record of accepted
// contributions. Cumulative totals are always derived from accepted entries;
// there is no separately maintained running-total row to drift out of sync.
package ledger

import (
	"fmt"
	"time"

	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
)

// Scope selects the aggregation window for cumulative totals.
type Scope string

const (
	// ScopeCampaign aggregates per (contributor, campaign). This matches how
	// the donation platform keys its limit table and is the default.
	ScopeCampaign Scope = "campaign"

	// ScopeCycle aggregates per contributor within an election cycle.
	// The cycle calendar is a compliance-team configuration decision that has
	// not been confirmed; until it is, cycle scope aggregates platform-wide,
	// which is the strictly more conservative reading.
	ScopeCycle Scope = "cycle"

	// ScopePlatform aggregates per contributor across all campaigns.
	ScopePlatform Scope = "platform"
)

// ParseScope normalizes a configured scope string, defaulting to campaign.
func ParseScope(s string) Scope {
	switch Scope(s) {
	case ScopeCycle:
		return ScopeCycle
	case ScopePlatform:
		return ScopePlatform
	default:
		return ScopeCampaign
	}
}

// PerCampaign reports whether totals are keyed by campaign in addition to
// contributor.
func (s Scope) PerCampaign() bool {
	return s == ScopeCampaign
}

// Contribution is one attempted donation as submitted by a donor. Immutable
// once persisted; corrections are modeled as new reversing entries, never
// edits.
type Contribution struct {
	ContributorID id.ContributorID
	CampaignID    id.CampaignID
	Amount        money.Cents
	SubmittedAt   time.Time
	// WalletOrPaymentRef carries the wallet address or payment-network
	// reference when the caller has one. Informational only; identity is
	// ContributorID.
	WalletOrPaymentRef string
}

// Validate checks the structural invariants a contribution must satisfy
// before it can be appended.
func (c Contribution) Validate() error {
	if c.ContributorID.IsZero() {
		return fmt.Errorf("contributor id is required")
	}
	if c.CampaignID.IsNil() {
		return fmt.Errorf("campaign id is required")
	}
	if c.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %s", c.Amount)
	}
	if c.SubmittedAt.IsZero() {
		return fmt.Errorf("submitted_at is required")
	}
	return nil
}

// Entry is an accepted contribution as recorded in the ledger.
type Entry struct {
	ID              id.EntryID
	TransactionCode string
	Contribution
	RecordedAt time.Time
}

// ListFilter narrows ledger listings. Zero values mean "no filter".
type ListFilter struct {
	ContributorID id.ContributorID
	CampaignID    id.CampaignID
	Limit         int
	Offset        int
}
