// Package postgres provides the production ledger store.
//
// Expected schema:
//
//	CREATE TABLE contributions (
//	    id               UUID PRIMARY KEY,
//	    transaction_code TEXT NOT NULL UNIQUE,
//	    contributor_id   TEXT NOT NULL,
//	    campaign_id      UUID NOT NULL,
//	    amount_cents     BIGINT NOT NULL CHECK (amount_cents > 0),
//	    submitted_at     TIMESTAMPTZ NOT NULL,
//	    wallet_ref       TEXT,
//	    recorded_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    UNIQUE (contributor_id, campaign_id, amount_cents, submitted_at)
//	);
//	CREATE INDEX contributions_contributor_idx ON contributions (contributor_id, campaign_id);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fecgate/internal/ledger"
	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
	"fecgate/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Store persists accepted contributions in PostgreSQL. Per-contributor
// serializability comes from a transaction-scoped advisory lock on the
// contributor key, so the sum-check-insert sequence is atomic per contributor
// without any application-level locking and without blocking other
// contributors.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed ledger store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CumulativeTotal(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, scope ledger.Scope) (money.Cents, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM contributions
		WHERE contributor_id = $1
		  AND ($2 = FALSE OR campaign_id = $3)
	`
	var total int64
	err := s.db.QueryRowContext(ctx, query, contributorID.String(), scope.PerCampaign(), campaignID.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("cumulative total: %w", err)
	}
	return money.Cents(total), nil
}

func (s *Store) AppendUnderCap(ctx context.Context, c ledger.Contribution, capCents money.Cents, scope ledger.Scope) (*ledger.Entry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize appends per contributor. hashtext collisions only cost
	// unnecessary serialization between two contributors, never correctness.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, c.ContributorID.String()); err != nil {
		return nil, fmt.Errorf("acquire contributor lock: %w", err)
	}

	// Duplicate guard before the cap check: a resubmitted accepted
	// contribution must report "already processed", not "over cap".
	var dup bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contributions
			WHERE contributor_id = $1 AND campaign_id = $2
			  AND amount_cents = $3 AND submitted_at = $4
		)
	`, c.ContributorID.String(), c.CampaignID.String(), int64(c.Amount), c.SubmittedAt).Scan(&dup)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, sentinel.ErrConflict
	}

	entry := ledger.Entry{
		ID:              id.NewEntryID(),
		TransactionCode: ledger.NewTransactionCode(),
		Contribution:    c,
		RecordedAt:      time.Now().UTC(),
	}

	// Conditional insert: no row is written when the resulting total would
	// breach the cap.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO contributions
			(id, transaction_code, contributor_id, campaign_id, amount_cents, submitted_at, wallet_ref, recorded_at)
		SELECT $1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8
		WHERE (
			SELECT COALESCE(SUM(amount_cents), 0)
			FROM contributions
			WHERE contributor_id = $3
			  AND ($9 = FALSE OR campaign_id = $4)
		) + $5 <= $10
	`,
		entry.ID.String(),
		entry.TransactionCode,
		c.ContributorID.String(),
		c.CampaignID.String(),
		int64(c.Amount),
		c.SubmittedAt,
		c.WalletOrPaymentRef,
		entry.RecordedAt,
		scope.PerCampaign(),
		int64(capCents),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("append contribution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("append rows affected: %w", err)
	}
	if rows == 0 {
		return nil, sentinel.ErrOverCap
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return &entry, nil
}

func (s *Store) List(ctx context.Context, filter ledger.ListFilter) ([]ledger.Entry, int, error) {
	where := `WHERE ($1 = '' OR contributor_id = $1) AND ($2 = '' OR campaign_id::text = $2)`

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contributions `+where,
		filter.ContributorID.String(), campaignFilter(filter.CampaignID)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count contributions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_code, contributor_id, campaign_id, amount_cents, submitted_at, COALESCE(wallet_ref, ''), recorded_at
		FROM contributions `+where+`
		ORDER BY recorded_at DESC
		LIMIT $3 OFFSET $4
	`, filter.ContributorID.String(), campaignFilter(filter.CampaignID), limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e             ledger.Entry
			entryID       string
			contributorID string
			campaignID    string
			amount        int64
		)
		if err := rows.Scan(&entryID, &e.TransactionCode, &contributorID, &campaignID, &amount, &e.SubmittedAt, &e.WalletOrPaymentRef, &e.RecordedAt); err != nil {
			return nil, 0, fmt.Errorf("scan contribution: %w", err)
		}
		if e.ID, err = id.ParseEntryID(entryID); err != nil {
			return nil, 0, fmt.Errorf("scan contribution id: %w", err)
		}
		if e.CampaignID, err = id.ParseCampaignID(campaignID); err != nil {
			return nil, 0, fmt.Errorf("scan campaign id: %w", err)
		}
		e.ContributorID = id.ContributorID(contributorID)
		e.Amount = money.Cents(amount)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list contributions rows: %w", err)
	}
	return entries, total, nil
}

func campaignFilter(campaignID id.CampaignID) string {
	if campaignID.IsNil() {
		return ""
	}
	return campaignID.String()
}
