// Package compliance decides whether a proposed contribution is legally
// admissible. The rules live in pure functions; the engine service wires
// them to the KYC registry and the contribution ledger.
package compliance

import (
	"time"

	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
)

// Decision is the engine's accept/reject outcome.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// Reason explains a verdict. Rejection reasons are business outcomes, not
// errors: the web layer turns each one into a specific donor-facing message.
type Reason string

const (
	// ReasonKYCNotPassed: the contributor has not completed identity
	// verification. Checked before any amount math — even $0.01 from an
	// unverified identity is rejected.
	ReasonKYCNotPassed Reason = "KYC_NOT_PASSED"

	// ReasonExceedsPerTransaction: the single contribution exceeds the
	// per-transaction cap.
	ReasonExceedsPerTransaction Reason = "EXCEEDS_PER_TRANSACTION"

	// ReasonExceedsCumulative: prior total plus this contribution would
	// exceed the cumulative cap.
	ReasonExceedsCumulative Reason = "EXCEEDS_CUMULATIVE"

	// ReasonValid: all checks passed.
	ReasonValid Reason = "VALID"
)

// Verdict is the engine's decision for one proposed contribution. Ephemeral:
// produced and consumed per request, logged and audited but never persisted
// as its own record.
type Verdict struct {
	Decision   Decision
	Reason     Reason
	PriorTotal money.Cents
	Amount     money.Cents
	// NewTotal is set only on accept.
	NewTotal *money.Cents

	// Populated by the engine on accept.
	EntryID         id.EntryID
	TransactionCode string

	EvaluatedAt time.Time
}

// Accepted reports whether the verdict is an accept.
func (v *Verdict) Accepted() bool {
	return v.Decision == DecisionAccept
}
