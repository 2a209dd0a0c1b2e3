// Package kyc answers one question: has this contributor completed identity
// verification? The registry is fail-closed — an unknown contributor is never
// treated as verified — and an unreachable store is an error, never a "no".
package kyc

import (
	"context"
	"log/slog"
	"time"

	kycmetrics "fecgate/internal/kyc/metrics"
	id "fecgate/pkg/domain"
	dErrors "fecgate/pkg/domain-errors"
	audit "fecgate/pkg/platform/audit"
)

// Status is a contributor's verification state.
type Status struct {
	ContributorID id.ContributorID
	Verified      bool
	VerifiedAt    *time.Time
}

// Store persists verification state. Implementations must distinguish "no
// record" (zero Status, nil error) from "could not look up" (error).
type Store interface {
	Status(ctx context.Context, contributorID id.ContributorID) (Status, error)
	// MarkVerified is idempotent: marking an already-verified contributor is
	// a no-op success that preserves the original VerifiedAt.
	MarkVerified(ctx context.Context, contributorID id.ContributorID, at time.Time) error
}

// AuditPublisher records verification marks on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the registry surface consumed by the compliance engine and the
// KYC HTTP handlers. The identity-verification workflow that decides WHEN a
// contributor becomes verified lives outside this repository; this service
// only records and reports the outcome.
type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *kycmetrics.Metrics
	auditPublisher AuditPublisher
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for verification events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *kycmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher records verification marks as operations-category audit
// events.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// NewService constructs the KYC registry service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsVerified reports whether the contributor has passed identity
// verification. Unknown contributors are unverified.
func (s *Service) IsVerified(ctx context.Context, contributorID id.ContributorID) (bool, error) {
	if contributorID.IsZero() {
		return false, dErrors.New(dErrors.CodeValidation, "contributor id is required")
	}
	status, err := s.store.Status(ctx, contributorID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "kyc registry lookup failed")
	}
	s.metrics.IncrementLookup(status.Verified)
	return status.Verified, nil
}

// Status returns the contributor's full verification state.
func (s *Service) Status(ctx context.Context, contributorID id.ContributorID) (Status, error) {
	if contributorID.IsZero() {
		return Status{}, dErrors.New(dErrors.CodeValidation, "contributor id is required")
	}
	status, err := s.store.Status(ctx, contributorID)
	if err != nil {
		return Status{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "kyc registry lookup failed")
	}
	status.ContributorID = contributorID
	return status, nil
}

// MarkVerified records a passed verification. Idempotent.
func (s *Service) MarkVerified(ctx context.Context, contributorID id.ContributorID, at time.Time) error {
	if contributorID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "contributor id is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := s.store.MarkVerified(ctx, contributorID, at); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "kyc registry write failed")
	}
	s.metrics.IncrementMarked()
	if s.auditPublisher != nil {
		event := audit.Event{
			ContributorID: contributorID,
			Action:        string(audit.EventKYCVerified),
			Timestamp:     at,
		}
		if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "audit emit failed",
				"contributor_id", contributorID.String(),
				"error", err,
			)
		}
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "contributor marked verified",
			"contributor_id", contributorID.String(),
			"verified_at", at,
		)
	}
	return nil
}
