// Package postgres persists audit events.
//
// Expected schema:
//
//	CREATE TABLE audit_events (
//	    id             UUID PRIMARY KEY,
//	    category       TEXT NOT NULL,
//	    recorded_at    TIMESTAMPTZ NOT NULL,
//	    contributor_id TEXT NOT NULL,
//	    payload        JSONB NOT NULL
//	);
//	CREATE INDEX audit_events_contributor_idx ON audit_events (contributor_id, recorded_at DESC);
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "fecgate/pkg/domain"
	audit "fecgate/pkg/platform/audit"
)

// Store writes audit events to PostgreSQL. The full event rides in a JSONB
// payload so new fields never need a migration; category and contributor are
// lifted into columns for retention policies and lookups.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, recorded_at, contributor_id, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), string(event.Category), event.Timestamp, event.ContributorID.String(), payload)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByContributor(ctx context.Context, contributorID id.ContributorID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_events
		WHERE contributor_id = $1
		ORDER BY recorded_at ASC
	`, contributorID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_events
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event audit.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit event rows: %w", err)
	}
	return events, nil
}
