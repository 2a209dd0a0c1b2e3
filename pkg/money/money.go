// Package money provides exact fixed-point USD arithmetic for contribution
// accounting. All amounts are integer cents; binary floating point is never
// used, so cumulative sums near a limit boundary carry no rounding drift.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a USD amount in integer cents.
type Cents int64

// FromDollars converts whole dollars to cents.
func FromDollars(dollars int64) Cents {
	return Cents(dollars * 100)
}

// ParseUSD parses a decimal dollar string ("3300", "100.01", "$25.50") into
// cents. At most two fractional digits are accepted; anything finer would be
// silently lossy, so it is rejected instead.
func ParseUSD(s string) (Cents, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("parse usd: empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("parse usd %q: more than two fractional digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse usd %q: %w", s, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse usd %q: %w", s, err)
	}

	total := Cents(dollars*100 + cents)
	if neg {
		total = -total
	}
	return total, nil
}

// Dollars returns the whole-dollar portion.
func (c Cents) Dollars() int64 {
	return int64(c) / 100
}

// String formats the amount as a plain decimal, e.g. "3300.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// USD formats the amount with a dollar sign for user-facing messages.
func (c Cents) USD() string {
	return "$" + c.String()
}

// MarshalJSON encodes the amount as a decimal string so JSON consumers never
// see a binary float.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts only a quoted decimal string. Bare JSON numbers are
// rejected: a client sending 100.10 as a float has already lost exactness.
func (c *Cents) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("parse usd: amount must be a decimal string, got %s", string(data))
	}
	parsed, err := ParseUSD(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
