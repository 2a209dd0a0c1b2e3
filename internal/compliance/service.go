package compliance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	compliancemetrics "fecgate/internal/compliance/metrics"
	"fecgate/internal/ledger"
	id "fecgate/pkg/domain"
	dErrors "fecgate/pkg/domain-errors"
	"fecgate/pkg/money"
	audit "fecgate/pkg/platform/audit"
	"fecgate/pkg/platform/sentinel"
	"fecgate/pkg/requestcontext"
)

const defaultStorageTimeout = 2 * time.Second

// KYCChecker answers whether a contributor has passed identity verification.
type KYCChecker interface {
	IsVerified(ctx context.Context, contributorID id.ContributorID) (bool, error)
}

// AuditPublisher records compliance outcomes and serves them back for the
// audit-trail endpoint.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, contributorID id.ContributorID) ([]audit.Event, error)
}

// Service is the compliance engine: it gathers KYC status and the prior
// cumulative total, applies the limit rules, and commits accepted
// contributions to the ledger. A verdict — accept or reject — is a successful
// evaluation; an error means the engine could not decide and the caller must
// not treat the contribution as rejected.
type Service struct {
	kyc    KYCChecker
	store  ledger.Store
	limits Limits
	scope  ledger.Scope

	storageTimeout time.Duration
	logger         *slog.Logger
	metrics        *compliancemetrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *compliancemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithStorageTimeout bounds the KYC and ledger reads during evaluation.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storageTimeout = d
		}
	}
}

// NewService constructs the engine over a KYC checker and a ledger store.
func NewService(kyc KYCChecker, store ledger.Store, limits Limits, scope ledger.Scope, opts ...Option) *Service {
	s := &Service{
		kyc:            kyc,
		store:          store,
		limits:         limits,
		scope:          scope,
		storageTimeout: defaultStorageTimeout,
		tracer:         otel.Tracer("fecgate/compliance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate decides one proposed contribution. On accept the contribution is
// already committed to the ledger when Evaluate returns; the verdict carries
// the entry ID and transaction code. On reject nothing is committed but the
// attempt is still audited.
//
// Errors carry CodeValidation for malformed input, CodeConflict for a
// duplicate resubmission, and CodeUnavailable when a dependency prevented a
// decision.
func (s *Service) Evaluate(ctx context.Context, c ledger.Contribution) (*Verdict, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance.Evaluate",
		trace.WithAttributes(
			attribute.String("contributor_id", c.ContributorID.String()),
			attribute.String("campaign_id", c.CampaignID.String()),
			attribute.Int64("amount_cents", int64(c.Amount)),
		))
	defer span.End()

	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = requestcontext.Now(ctx)
	}
	if err := c.Validate(); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}

	verified, priorTotal, err := s.gatherFacts(ctx, c)
	if err != nil {
		s.metrics.IncrementFailure(failureKind(err))
		s.logError(ctx, "evaluation facts unavailable", c, err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance engine unavailable")
	}

	verdict := s.limits.Evaluate(c.Amount, priorTotal, verified)
	verdict.EvaluatedAt = requestcontext.Now(ctx)

	if verdict.Accepted() {
		entry, err := s.commit(ctx, c, &verdict)
		if err != nil {
			return nil, err
		}
		// commit downgrades the verdict when a concurrent append consumed
		// the remaining headroom; only a still-accepted verdict has an entry.
		if entry != nil {
			verdict.EntryID = entry.ID
			verdict.TransactionCode = entry.TransactionCode
		}
	}

	if err := s.audit(ctx, c, &verdict); err != nil {
		s.metrics.IncrementFailure("audit")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}
	s.metrics.IncrementVerdict(string(verdict.Decision), string(verdict.Reason))
	s.metrics.ObserveEvaluation(string(verdict.Decision), time.Since(start))
	s.logVerdict(ctx, c, &verdict)
	span.SetAttributes(
		attribute.String("decision", string(verdict.Decision)),
		attribute.String("reason", string(verdict.Reason)),
	)
	return &verdict, nil
}

// gatherFacts reads KYC status and the prior cumulative total in parallel
// under the storage timeout.
func (s *Service) gatherFacts(ctx context.Context, c ledger.Contribution) (verified bool, priorTotal money.Cents, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.kyc.IsVerified(ctx, c.ContributorID)
		if err != nil {
			return err
		}
		verified = v
		return nil
	})

	g.Go(func() error {
		total, err := s.store.CumulativeTotal(ctx, c.ContributorID, c.CampaignID, s.scope)
		if err != nil {
			return err
		}
		priorTotal = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return false, 0, err
	}
	return verified, priorTotal, nil
}

// commit appends the accepted contribution. A concurrent contribution may
// have consumed the remaining headroom between the read and the append; the
// store's conditional write catches that, the verdict is downgraded in place
// to a cumulative reject with the refreshed prior total, and commit returns
// a nil entry with no error.
func (s *Service) commit(ctx context.Context, c ledger.Contribution, verdict *Verdict) (*ledger.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	entry, err := s.store.AppendUnderCap(ctx, c, s.limits.Cumulative, s.scope)
	switch {
	case err == nil:
		return entry, nil

	case errors.Is(err, sentinel.ErrOverCap):
		refreshed, terr := s.store.CumulativeTotal(ctx, c.ContributorID, c.CampaignID, s.scope)
		if terr != nil {
			refreshed = verdict.PriorTotal
		}
		*verdict = s.limits.Evaluate(c.Amount, refreshed, true)
		verdict.EvaluatedAt = requestcontext.Now(ctx)
		return nil, nil

	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncrementFailure("conflict")
		return nil, dErrors.New(dErrors.CodeConflict, "contribution already recorded")

	default:
		s.metrics.IncrementFailure(failureKind(err))
		s.logError(ctx, "ledger append failed", c, err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance engine unavailable")
	}
}

// Capacity reports how much a contributor can still give before reaching the
// cumulative cap.
type Capacity struct {
	PriorTotal money.Cents
	Remaining  money.Cents
	Cumulative money.Cents
}

// RemainingCapacity returns the contributor's headroom under the cumulative
// cap within the configured scope.
func (s *Service) RemainingCapacity(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID) (Capacity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	total, err := s.store.CumulativeTotal(ctx, contributorID, campaignID, s.scope)
	if err != nil {
		s.metrics.IncrementFailure(failureKind(err))
		return Capacity{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance engine unavailable")
	}
	return Capacity{
		PriorTotal: total,
		Remaining:  s.limits.RemainingCapacity(total),
		Cumulative: s.limits.Cumulative,
	}, nil
}

// ProjectRecurring forecasts whether a recurring pledge would breach the
// cumulative cap, using the contributor's current prior total as the
// starting point.
func (s *Service) ProjectRecurring(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, amount money.Cents, freq Frequency, start time.Time, end *time.Time) (Projection, error) {
	if amount <= 0 {
		return Projection{}, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	total, err := s.store.CumulativeTotal(ctx, contributorID, campaignID, s.scope)
	if err != nil {
		s.metrics.IncrementFailure(failureKind(err))
		return Projection{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance engine unavailable")
	}
	var until time.Time
	if end != nil {
		until = *end
	}
	return s.limits.ProjectRecurring(amount, freq, total, start, until), nil
}

// ListContributions returns accepted ledger entries matching the filter.
func (s *Service) ListContributions(ctx context.Context, filter ledger.ListFilter) ([]ledger.Entry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	entries, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "compliance engine unavailable")
	}
	return entries, total, nil
}

// ConfiguredLimits returns the caps in force, for surfacing in API responses.
func (s *Service) ConfiguredLimits() Limits {
	return s.limits
}

// audit records the verdict on the compliance trail. For an accepted
// contribution the write is fail-closed: the ledger entry stands, but the
// caller is told the legal record is incomplete rather than handed a clean
// accept. A resubmission maps to the recorded entry through the duplicate
// guard. Rejection-event failures are logged and do not mask the verdict.
func (s *Service) audit(ctx context.Context, c ledger.Contribution, verdict *Verdict) error {
	if s.auditPublisher == nil {
		return nil
	}
	action := audit.EventContributionRejected
	if verdict.Accepted() {
		action = audit.EventContributionAccepted
	}
	event := audit.Event{
		ContributorID:   c.ContributorID,
		CampaignID:      c.CampaignID,
		Action:          string(action),
		Decision:        string(verdict.Decision),
		Reason:          string(verdict.Reason),
		Amount:          c.Amount,
		PriorTotal:      verdict.PriorTotal,
		TransactionCode: verdict.TransactionCode,
		RequestID:       requestcontext.RequestID(ctx),
		Timestamp:       verdict.EvaluatedAt,
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logError(ctx, "audit emit failed", c, err)
		if verdict.Accepted() {
			return err
		}
	}
	return nil
}

// AuditTrail returns the recorded evaluation events for a contributor,
// oldest first.
func (s *Service) AuditTrail(ctx context.Context, contributorID id.ContributorID) ([]audit.Event, error) {
	if s.auditPublisher == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit trail not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	events, err := s.auditPublisher.List(ctx, contributorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}
	return events, nil
}

func (s *Service) logVerdict(ctx context.Context, c ledger.Contribution, verdict *Verdict) {
	if s.logger == nil {
		return
	}
	s.logger.InfoContext(ctx, "contribution evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"contributor_id", c.ContributorID.String(),
		"campaign_id", c.CampaignID.String(),
		"amount", c.Amount.String(),
		"decision", string(verdict.Decision),
		"reason", string(verdict.Reason),
	)
}

func (s *Service) logError(ctx context.Context, msg string, c ledger.Contribution, err error) {
	if s.logger == nil {
		return
	}
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"contributor_id", c.ContributorID.String(),
		"error", err,
	)
}

func failureKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "unavailable"
}
