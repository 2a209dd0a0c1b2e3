// Package domain holds the identifier types shared across modules.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ContributorID is the canonical identity key for a natural person or entity
// making contributions: a wallet address or a KYC-verified identity hash.
// It is opaque to the engine; the only requirements are non-emptiness and
// stability across submissions.
type ContributorID string

// ParseContributorID validates and normalizes a contributor identifier.
// Wallet addresses are case-normalized so the same wallet never splits into
// two ledger keys.
func ParseContributorID(s string) (ContributorID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("contributor id is required")
	}
	if len(s) > 128 {
		return "", fmt.Errorf("contributor id must be at most 128 characters")
	}
	return ContributorID(strings.ToLower(s)), nil
}

func (c ContributorID) String() string { return string(c) }

// IsZero reports whether the ID is unset.
func (c ContributorID) IsZero() bool { return c == "" }

// CampaignID identifies a campaign configured on the platform.
type CampaignID uuid.UUID

// ParseCampaignID parses a UUID-formatted campaign identifier.
func ParseCampaignID(s string) (CampaignID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return CampaignID{}, fmt.Errorf("invalid campaign id: %w", err)
	}
	return CampaignID(u), nil
}

// NewCampaignID returns a fresh random campaign ID.
func NewCampaignID() CampaignID { return CampaignID(uuid.New()) }

func (c CampaignID) String() string { return uuid.UUID(c).String() }

// IsNil reports whether the ID is the zero UUID.
func (c CampaignID) IsNil() bool { return uuid.UUID(c) == uuid.Nil }

// MarshalText encodes the ID as its canonical UUID string.
func (c CampaignID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a canonical UUID string.
func (c *CampaignID) UnmarshalText(data []byte) error {
	parsed, err := ParseCampaignID(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// EntryID identifies a single ledger entry.
type EntryID uuid.UUID

// NewEntryID returns a fresh random ledger entry ID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParseEntryID parses a UUID-formatted ledger entry identifier.
func ParseEntryID(s string) (EntryID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return EntryID{}, fmt.Errorf("invalid entry id: %w", err)
	}
	return EntryID(u), nil
}

func (e EntryID) String() string { return uuid.UUID(e).String() }

// IsNil reports whether the ID is the zero UUID.
func (e EntryID) IsNil() bool { return uuid.UUID(e) == uuid.Nil }

// MarshalText encodes the ID as its canonical UUID string.
func (e EntryID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses a canonical UUID string.
func (e *EntryID) UnmarshalText(data []byte) error {
	parsed, err := ParseEntryID(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
