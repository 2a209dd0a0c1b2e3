package ledger

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTransactionCode(t *testing.T) {
	pattern := regexp.MustCompile(`^TXN-[A-Z0-9]{8}-[A-Z0-9]{4}$`)

	seen := make(map[string]bool)
	for range 100 {
		code := NewTransactionCode()
		require.Regexp(t, pattern, code)
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
