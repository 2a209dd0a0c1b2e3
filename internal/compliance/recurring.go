package compliance

import (
	"fmt"
	"time"

	"fecgate/pkg/money"
)

// Frequency is a recurring-contribution schedule interval.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiWeekly  Frequency = "bi-weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

// ParseFrequency validates a schedule interval string.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return f, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

func (f Frequency) next(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiWeekly:
		return t.AddDate(0, 0, 14)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyAnnually:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Projection describes how a recurring schedule plays out against the
// cumulative cap.
type Projection struct {
	TotalAmount  money.Cents
	PaymentCount int
	// WillExceedLimit reports that the schedule would eventually breach the
	// cap; ExceedsOn is the date of the first payment that no longer fits.
	// A compliant setup auto-cancels the schedule before that payment.
	WillExceedLimit bool
	ExceedsOn       *time.Time
}

// maxProjectedPayments bounds runaway schedules (e.g. weekly with no end
// date beyond the one-year horizon).
const maxProjectedPayments = 100

// ProjectRecurring simulates a recurring schedule of fixed payments starting
// at start, stopping at end (or one year after start if end is zero), and
// reports the total that fits under the cumulative cap given the
// contributor's prior total. Pure function; the engine still evaluates each
// real payment when it arrives.
func (l Limits) ProjectRecurring(amount money.Cents, freq Frequency, priorTotal money.Cents, start, end time.Time) Projection {
	var p Projection
	if amount <= 0 {
		return p
	}

	horizon := end
	if horizon.IsZero() {
		horizon = start.AddDate(1, 0, 0)
	}

	running := priorTotal
	current := start
	for !current.After(horizon) && p.PaymentCount < maxProjectedPayments {
		if running+amount > l.Cumulative {
			when := current
			p.WillExceedLimit = true
			p.ExceedsOn = &when
			break
		}
		running += amount
		p.TotalAmount += amount
		p.PaymentCount++
		current = freq.next(current)
	}
	return p
}
