package ledger

import (
	"crypto/rand"
	"fmt"
)

const txCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTransactionCode returns a donor-facing receipt code in the form
// TXN-XXXXXXXX-XXXX. Codes are random, not sequential, so receipts leak no
// information about contribution volume.
func NewTransactionCode() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; nothing
		// sensible to do but stop.
		panic(fmt.Sprintf("transaction code entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = txCodeAlphabet[int(b)%len(txCodeAlphabet)]
	}
	return fmt.Sprintf("TXN-%s-%s", buf[:8], buf[8:])
}
