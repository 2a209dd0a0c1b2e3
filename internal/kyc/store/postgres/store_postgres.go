// Package postgres provides the production KYC store.
//
// Expected schema:
//
//	CREATE TABLE kyc_verifications (
//	    contributor_id TEXT PRIMARY KEY,
//	    verified_at    TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fecgate/internal/kyc"
	id "fecgate/pkg/domain"
)

// Store persists verification state in PostgreSQL. Pure I/O; the fail-closed
// default and idempotency semantics live in the queries themselves.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed KYC store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Status(ctx context.Context, contributorID id.ContributorID) (kyc.Status, error) {
	var verifiedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT verified_at FROM kyc_verifications WHERE contributor_id = $1`,
		contributorID.String(),
	).Scan(&verifiedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// No row means unverified, not an error.
			return kyc.Status{ContributorID: contributorID}, nil
		}
		return kyc.Status{}, fmt.Errorf("kyc status: %w", err)
	}
	return kyc.Status{ContributorID: contributorID, Verified: true, VerifiedAt: &verifiedAt}, nil
}

func (s *Store) MarkVerified(ctx context.Context, contributorID id.ContributorID, at time.Time) error {
	// ON CONFLICT DO NOTHING keeps the first verification time.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kyc_verifications (contributor_id, verified_at)
		VALUES ($1, $2)
		ON CONFLICT (contributor_id) DO NOTHING
	`, contributorID.String(), at)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}
