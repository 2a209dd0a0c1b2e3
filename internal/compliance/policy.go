package compliance

import "fecgate/pkg/money"

// DefaultFECLimit is the FEC individual contribution limit per election:
// $3,300. Both caps default to it, so no single contribution may exceed the
// cycle cap and the running total may never exceed it either.
const DefaultFECLimit = money.Cents(330000)

// Limits carries the contribution caps for a campaign/jurisdiction. Both are
// inclusive: a contribution that lands exactly on a cap is accepted.
type Limits struct {
	PerTransaction money.Cents
	Cumulative     money.Cents
}

// DefaultLimits returns the federal individual-contribution defaults.
func DefaultLimits() Limits {
	return Limits{PerTransaction: DefaultFECLimit, Cumulative: DefaultFECLimit}
}

// Evaluate applies the contribution-limit rule chain to produce a verdict.
// Pure domain logic - no I/O, no side effects.
//
// Rule priority (fail-fast):
//  1. KYC gate - an unverified identity is rejected regardless of amount
//  2. Per-transaction cap
//  3. Cumulative cap (inclusive boundary: priorTotal+amount == cap passes)
func (l Limits) Evaluate(amount, priorTotal money.Cents, kycPassed bool) Verdict {
	v := Verdict{
		Decision:   DecisionReject,
		PriorTotal: priorTotal,
		Amount:     amount,
	}

	// Rule 1: KYC gate - evaluated before any amount math
	if !kycPassed {
		v.Reason = ReasonKYCNotPassed
		return v
	}

	// Rule 2: per-transaction cap
	if amount > l.PerTransaction {
		v.Reason = ReasonExceedsPerTransaction
		return v
	}

	// Rule 3: cumulative cap
	newTotal := priorTotal + amount
	if newTotal > l.Cumulative {
		v.Reason = ReasonExceedsCumulative
		return v
	}

	v.Decision = DecisionAccept
	v.Reason = ReasonValid
	v.NewTotal = &newTotal
	return v
}

// RemainingCapacity returns how much the contributor can still give before
// hitting the cumulative cap. Never negative.
func (l Limits) RemainingCapacity(priorTotal money.Cents) money.Cents {
	if priorTotal >= l.Cumulative {
		return 0
	}
	return l.Cumulative - priorTotal
}
