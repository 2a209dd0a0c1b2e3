package compliance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fecgate/internal/ledger"
	ledgermemory "fecgate/internal/ledger/store/memory"
	id "fecgate/pkg/domain"
	dErrors "fecgate/pkg/domain-errors"
	"fecgate/pkg/money"
	audit "fecgate/pkg/platform/audit"
)

type fakeKYC struct {
	mu       sync.Mutex
	verified map[id.ContributorID]bool
	err      error
}

func (f *fakeKYC) IsVerified(_ context.Context, contributorID id.ContributorID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.verified[contributorID], nil
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	ledger.Store
	failTotal  error
	failAppend error
}

func (f *failingStore) CumulativeTotal(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, scope ledger.Scope) (money.Cents, error) {
	if f.failTotal != nil {
		return 0, f.failTotal
	}
	return f.Store.CumulativeTotal(ctx, contributorID, campaignID, scope)
}

func (f *failingStore) AppendUnderCap(ctx context.Context, c ledger.Contribution, capCents money.Cents, scope ledger.Scope) (*ledger.Entry, error) {
	if f.failAppend != nil {
		return nil, f.failAppend
	}
	return f.Store.AppendUnderCap(ctx, c, capCents, scope)
}

// staleReadStore serves a stale total on the first read, simulating a
// concurrent append landing between the engine's pre-read and its commit.
type staleReadStore struct {
	ledger.Store
	stale money.Cents

	mu    sync.Mutex
	reads int
}

func (s *staleReadStore) CumulativeTotal(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, scope ledger.Scope) (money.Cents, error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()
	if first {
		return s.stale, nil
	}
	return s.Store.CumulativeTotal(ctx, contributorID, campaignID, scope)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Emit(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAudit) List(_ context.Context, contributorID id.ContributorID) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []audit.Event
	for _, event := range r.events {
		if event.ContributorID == contributorID {
			events = append(events, event)
		}
	}
	return events, nil
}

type failingAudit struct{ err error }

func (f *failingAudit) Emit(context.Context, audit.Event) error { return f.err }

func (f *failingAudit) List(context.Context, id.ContributorID) ([]audit.Event, error) {
	return nil, f.err
}

func (r *recordingAudit) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

type EngineSuite struct {
	suite.Suite

	kyc      *fakeKYC
	store    ledger.Store
	auditLog *recordingAudit
	svc      *Service

	contributor id.ContributorID
	campaign    id.CampaignID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.contributor = s.mustContributor("donor-1")
	s.campaign = id.NewCampaignID()
	s.kyc = &fakeKYC{verified: map[id.ContributorID]bool{s.contributor: true}}
	s.store = ledgermemory.New()
	s.auditLog = &recordingAudit{}
	s.svc = NewService(s.kyc, s.store, DefaultLimits(), ledger.ScopeCampaign,
		WithAuditPublisher(s.auditLog),
	)
}

func (s *EngineSuite) mustContributor(raw string) id.ContributorID {
	contributorID, err := id.ParseContributorID(raw)
	s.Require().NoError(err)
	return contributorID
}

func (s *EngineSuite) contribution(amount money.Cents) ledger.Contribution {
	return ledger.Contribution{
		ContributorID: s.contributor,
		CampaignID:    s.campaign,
		Amount:        amount,
		SubmittedAt:   time.Now().UTC(),
	}
}

func (s *EngineSuite) TestAcceptCommitsToLedger() {
	verdict, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(100)))
	s.Require().NoError(err)

	s.Equal(DecisionAccept, verdict.Decision)
	s.Equal(ReasonValid, verdict.Reason)
	s.Equal(money.Cents(0), verdict.PriorTotal)
	s.Require().NotNil(verdict.NewTotal)
	s.Equal(money.FromDollars(100), *verdict.NewTotal)
	s.False(verdict.EntryID.IsNil())
	s.Regexp(`^TXN-[A-Z0-9]{8}-[A-Z0-9]{4}$`, verdict.TransactionCode)

	total, err := s.store.CumulativeTotal(context.Background(), s.contributor, s.campaign, ledger.ScopeCampaign)
	s.Require().NoError(err)
	s.Equal(money.FromDollars(100), total)
}

func (s *EngineSuite) TestUnverifiedRejectedBeforeAmountChecks() {
	stranger := s.mustContributor("donor-unverified")
	c := s.contribution(money.Cents(1))
	c.ContributorID = stranger

	verdict, err := s.svc.Evaluate(context.Background(), c)
	s.Require().NoError(err)

	s.Equal(DecisionReject, verdict.Decision)
	s.Equal(ReasonKYCNotPassed, verdict.Reason)
	s.Nil(verdict.NewTotal)

	// Nothing committed.
	total, err := s.store.CumulativeTotal(context.Background(), stranger, s.campaign, ledger.ScopeCampaign)
	s.Require().NoError(err)
	s.Equal(money.Cents(0), total)
}

func (s *EngineSuite) TestPerTransactionRejectTakesPriorityOverCumulative() {
	// Over both caps at once: per-transaction is reported.
	verdict, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(5000)))
	s.Require().NoError(err)

	s.Equal(DecisionReject, verdict.Decision)
	s.Equal(ReasonExceedsPerTransaction, verdict.Reason)
}

func (s *EngineSuite) TestCumulativeBoundaryInclusive() {
	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(3200)))
	s.Require().NoError(err)

	s.Run("exactly at cap accepted", func() {
		c := s.contribution(money.FromDollars(100))
		c.SubmittedAt = c.SubmittedAt.Add(time.Minute)
		verdict, err := s.svc.Evaluate(context.Background(), c)
		s.Require().NoError(err)
		s.Equal(DecisionAccept, verdict.Decision)
		s.Equal(DefaultFECLimit, *verdict.NewTotal)
	})

	s.Run("one cent past cap rejected", func() {
		c := s.contribution(money.Cents(1))
		c.SubmittedAt = c.SubmittedAt.Add(2 * time.Minute)
		verdict, err := s.svc.Evaluate(context.Background(), c)
		s.Require().NoError(err)
		s.Equal(DecisionReject, verdict.Decision)
		s.Equal(ReasonExceedsCumulative, verdict.Reason)
		s.Equal(DefaultFECLimit, verdict.PriorTotal)
	})
}

func (s *EngineSuite) TestDuplicateSubmissionIsConflict() {
	c := s.contribution(money.FromDollars(50))
	_, err := s.svc.Evaluate(context.Background(), c)
	s.Require().NoError(err)

	_, err = s.svc.Evaluate(context.Background(), c)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EngineSuite) TestInvalidAmountIsValidationError() {
	for name, amount := range map[string]money.Cents{
		"zero":     0,
		"negative": -100,
	} {
		s.Run(name, func() {
			_, err := s.svc.Evaluate(context.Background(), s.contribution(amount))
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *EngineSuite) TestKYCOutageIsUnavailableNotReject() {
	s.kyc.err = errors.New("registry down")

	verdict, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(10)))
	s.Require().Error(err)
	s.Nil(verdict)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *EngineSuite) TestLedgerReadOutageIsUnavailable() {
	s.svc = NewService(s.kyc, &failingStore{Store: s.store, failTotal: errors.New("db down")},
		DefaultLimits(), ledger.ScopeCampaign)

	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(10)))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *EngineSuite) TestLedgerAppendOutageIsUnavailable() {
	s.svc = NewService(s.kyc, &failingStore{Store: s.store, failAppend: errors.New("db down")},
		DefaultLimits(), ledger.ScopeCampaign)

	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(10)))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *EngineSuite) TestConcurrentEvaluationsNeverOvershoot() {
	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(3000)))
	s.Require().NoError(err)

	// Two $200 contributions race for the last $300 of headroom. Exactly one
	// may land.
	results := make([]*Verdict, 2)
	var wg sync.WaitGroup
	for i := range results {
		c := s.contribution(money.FromDollars(200))
		c.SubmittedAt = c.SubmittedAt.Add(time.Duration(i+1) * time.Second)
		wg.Go(func() {
			verdict, err := s.svc.Evaluate(context.Background(), c)
			s.NoError(err)
			results[i] = verdict
		})
	}
	wg.Wait()

	accepted := 0
	for _, verdict := range results {
		s.Require().NotNil(verdict)
		if verdict.Accepted() {
			accepted++
		} else {
			s.Equal(ReasonExceedsCumulative, verdict.Reason)
		}
	}
	s.Equal(1, accepted)

	total, err := s.store.CumulativeTotal(context.Background(), s.contributor, s.campaign, ledger.ScopeCampaign)
	s.Require().NoError(err)
	s.Equal(money.FromDollars(3200), total)
}

func (s *EngineSuite) TestHeadroomLostToConcurrentAppendDowngradesVerdict() {
	// The ledger already holds $3200, but the engine's pre-read sees the
	// pre-race total of $3000 and judges the $200 acceptable. The append
	// must catch it and the caller must get an accurate reject, not an
	// error or a crash.
	seed := s.contribution(money.FromDollars(3200))
	_, err := s.store.AppendUnderCap(context.Background(), seed, DefaultFECLimit, ledger.ScopeCampaign)
	s.Require().NoError(err)

	stale := &staleReadStore{Store: s.store, stale: money.FromDollars(3000)}
	s.svc = NewService(s.kyc, stale, DefaultLimits(), ledger.ScopeCampaign,
		WithAuditPublisher(s.auditLog),
	)

	c := s.contribution(money.FromDollars(200))
	c.SubmittedAt = c.SubmittedAt.Add(time.Minute)
	verdict, err := s.svc.Evaluate(context.Background(), c)
	s.Require().NoError(err)

	s.Equal(DecisionReject, verdict.Decision)
	s.Equal(ReasonExceedsCumulative, verdict.Reason)
	s.Equal(money.FromDollars(3200), verdict.PriorTotal)
	s.True(verdict.EntryID.IsNil())
	s.Empty(verdict.TransactionCode)

	// The losing attempt is audited exactly once, as a rejection.
	events := s.auditLog.all()
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventContributionRejected), events[0].Action)
	s.Equal(string(ReasonExceedsCumulative), events[0].Reason)

	total, err := s.store.CumulativeTotal(context.Background(), s.contributor, s.campaign, ledger.ScopeCampaign)
	s.Require().NoError(err)
	s.Equal(money.FromDollars(3200), total)
}

func (s *EngineSuite) TestAcceptedAuditWriteFailureIsUnavailable() {
	s.svc = NewService(s.kyc, s.store, DefaultLimits(), ledger.ScopeCampaign,
		WithAuditPublisher(&failingAudit{err: errors.New("audit store down")}),
	)

	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(10)))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	// The ledger entry stands; a resubmission reports the conflict rather
	// than double-counting.
	total, err := s.store.CumulativeTotal(context.Background(), s.contributor, s.campaign, ledger.ScopeCampaign)
	s.Require().NoError(err)
	s.Equal(money.FromDollars(10), total)
}

func (s *EngineSuite) TestRejectedAuditWriteFailureStillReturnsVerdict() {
	stranger := s.mustContributor("donor-unverified")
	c := s.contribution(money.FromDollars(10))
	c.ContributorID = stranger

	s.svc = NewService(s.kyc, s.store, DefaultLimits(), ledger.ScopeCampaign,
		WithAuditPublisher(&failingAudit{err: errors.New("audit store down")}),
	)

	verdict, err := s.svc.Evaluate(context.Background(), c)
	s.Require().NoError(err)
	s.Equal(DecisionReject, verdict.Decision)
}

func (s *EngineSuite) TestAuditTrailListsVerdicts() {
	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(3300)))
	s.Require().NoError(err)

	c := s.contribution(money.Cents(1))
	c.SubmittedAt = c.SubmittedAt.Add(time.Minute)
	_, err = s.svc.Evaluate(context.Background(), c)
	s.Require().NoError(err)

	events, err := s.svc.AuditTrail(context.Background(), s.contributor)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventContributionAccepted), events[0].Action)
	s.Equal(string(audit.EventContributionRejected), events[1].Action)
}

func (s *EngineSuite) TestRejectionsAreAudited() {
	stranger := s.mustContributor("donor-audited")
	c := s.contribution(money.FromDollars(25))
	c.ContributorID = stranger

	_, err := s.svc.Evaluate(context.Background(), c)
	s.Require().NoError(err)

	events := s.auditLog.all()
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventContributionRejected), events[0].Action)
	s.Equal(string(ReasonKYCNotPassed), events[0].Reason)
	s.Equal(money.FromDollars(25), events[0].Amount)
}

func (s *EngineSuite) TestAcceptsAreAuditedWithTransactionCode() {
	verdict, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(75)))
	s.Require().NoError(err)

	events := s.auditLog.all()
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventContributionAccepted), events[0].Action)
	s.Equal(verdict.TransactionCode, events[0].TransactionCode)
}

func (s *EngineSuite) TestRemainingCapacity() {
	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(1250)))
	s.Require().NoError(err)

	capacity, err := s.svc.RemainingCapacity(context.Background(), s.contributor, s.campaign)
	s.Require().NoError(err)
	s.Equal(money.FromDollars(1250), capacity.PriorTotal)
	s.Equal(money.FromDollars(2050), capacity.Remaining)
	s.Equal(DefaultFECLimit, capacity.Cumulative)
}

func (s *EngineSuite) TestRemainingCapacityUnavailableOnStoreFailure() {
	s.svc = NewService(s.kyc, &failingStore{Store: s.store, failTotal: errors.New("db down")},
		DefaultLimits(), ledger.ScopeCampaign)

	_, err := s.svc.RemainingCapacity(context.Background(), s.contributor, s.campaign)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *EngineSuite) TestProjectRecurringUsesPriorTotal() {
	_, err := s.svc.Evaluate(context.Background(), s.contribution(money.FromDollars(3000)))
	s.Require().NoError(err)

	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	projection, err := s.svc.ProjectRecurring(context.Background(), s.contributor, s.campaign,
		money.FromDollars(100), FrequencyMonthly, start, nil)
	s.Require().NoError(err)

	s.True(projection.WillExceedLimit)
	s.Require().NotNil(projection.ExceedsOn)
}

func (s *EngineSuite) TestListContributions() {
	for i, dollars := range []int64{100, 200, 300} {
		c := s.contribution(money.FromDollars(dollars))
		c.SubmittedAt = c.SubmittedAt.Add(time.Duration(i) * time.Minute)
		_, err := s.svc.Evaluate(context.Background(), c)
		s.Require().NoError(err)
	}

	entries, total, err := s.svc.ListContributions(context.Background(), ledger.ListFilter{
		ContributorID: s.contributor,
	})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(entries, 3)
}
