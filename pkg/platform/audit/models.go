// Package audit captures the compliance trail of contribution decisions.
// Every verdict — accepted or rejected — is recorded: regulators care as much
// about the attempts a campaign refused as the ones it took.
package audit

import (
	"context"
	"time"

	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention (e.g., 7 years).
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names a recorded action.
type AuditEvent string

const (
	EventContributionAccepted AuditEvent = "contribution_accepted"
	EventContributionRejected AuditEvent = "contribution_rejected"
	EventKYCVerified          AuditEvent = "kyc_verified"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Accepted contributions and rejections are the legal record.
	EventContributionAccepted: CategoryCompliance,
	EventContributionRejected: CategoryCompliance,
	// Verification marks are operational; the KYC provider keeps the
	// authoritative verification record.
	EventKYCVerified: CategoryOperations,
}

// CategoryOf returns the category for an event, defaulting to operations.
func CategoryOf(event AuditEvent) EventCategory {
	if c, ok := eventCategories[event]; ok {
		return c
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	ContributorID id.ContributorID
	CampaignID    id.CampaignID
	Action        string
	// Decision/Reason mirror the verdict for contribution events.
	Decision string
	Reason   string
	// Amounts are recorded in cents alongside the decision so the trail is
	// auditable without joining back to the ledger.
	Amount     money.Cents
	PriorTotal money.Cents
	// TransactionCode is set for accepted contributions.
	TransactionCode string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByContributor(ctx context.Context, contributorID id.ContributorID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
