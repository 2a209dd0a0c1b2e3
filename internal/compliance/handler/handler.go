// Package handler exposes the compliance engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fecgate/internal/compliance"
	"fecgate/internal/ledger"
	id "fecgate/pkg/domain"
	dErrors "fecgate/pkg/domain-errors"
	"fecgate/pkg/money"
	audit "fecgate/pkg/platform/audit"
	"fecgate/pkg/platform/httputil"
	"fecgate/pkg/requestcontext"
)

const defaultListLimit = 50
const maxListLimit = 500

// Service is the engine surface the handler needs.
type Service interface {
	Evaluate(ctx context.Context, c ledger.Contribution) (*compliance.Verdict, error)
	RemainingCapacity(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID) (compliance.Capacity, error)
	ProjectRecurring(ctx context.Context, contributorID id.ContributorID, campaignID id.CampaignID, amount money.Cents, freq compliance.Frequency, start time.Time, end *time.Time) (compliance.Projection, error)
	ListContributions(ctx context.Context, filter ledger.ListFilter) ([]ledger.Entry, int, error)
	AuditTrail(ctx context.Context, contributorID id.ContributorID) ([]audit.Event, error)
}

// Handler serves the contribution endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates a contributions Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the contribution routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/contributions", func(r chi.Router) {
		r.Post("/evaluate", h.handleEvaluate)
		r.Post("/project", h.handleProject)
		r.Get("/capacity", h.handleCapacity)
		r.Get("/audit", h.handleAuditTrail)
		r.Get("/", h.handleList)
	})
}

// handleEvaluate runs one contribution through the engine. A policy reject is
// a 200 with the verdict payload; only engine failures surface as errors so a
// donor is never told "rejected" when the truth is "cannot decide".
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verdict, err := h.svc.Evaluate(ctx, req.Contribution())
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) && !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "evaluation failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerdictResponse(verdict))
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	projection, err := h.svc.ProjectRecurring(ctx, req.contributorID, req.campaignID,
		req.Amount, req.frequency, req.StartDate, req.EndDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProjectionResponse{
		TotalAmount:     projection.TotalAmount,
		PaymentCount:    projection.PaymentCount,
		WillExceedLimit: projection.WillExceedLimit,
		ExceedsOn:       projection.ExceedsOn,
	})
}

func (h *Handler) handleCapacity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contributorID, err := id.ParseContributorID(r.URL.Query().Get("contributor_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error()))
		return
	}
	campaignID, err := id.ParseCampaignID(r.URL.Query().Get("campaign_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "campaign_id: "+err.Error()))
		return
	}

	capacity, err := h.svc.RemainingCapacity(ctx, contributorID, campaignID)
	if err != nil {
		h.logger.ErrorContext(ctx, "capacity lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CapacityResponse{
		ContributorID: contributorID.String(),
		CampaignID:    campaignID.String(),
		PriorTotal:    capacity.PriorTotal,
		Remaining:     capacity.Remaining,
		CumulativeCap: capacity.Cumulative,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var filter ledger.ListFilter
	if raw := q.Get("contributor_id"); raw != "" {
		contributorID, err := id.ParseContributorID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error()))
			return
		}
		filter.ContributorID = contributorID
	}
	if raw := q.Get("campaign_id"); raw != "" {
		campaignID, err := id.ParseCampaignID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "campaign_id: "+err.Error()))
			return
		}
		filter.CampaignID = campaignID
	}
	filter.Limit = queryInt(q.Get("limit"), defaultListLimit)
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	filter.Offset = queryInt(q.Get("offset"), 0)

	entries, total, err := h.svc.ListContributions(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "contribution listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(entries, total, filter.Limit, filter.Offset))
}

// handleAuditTrail returns every recorded evaluation for a contributor,
// accepted and rejected alike, oldest first.
func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contributorID, err := id.ParseContributorID(r.URL.Query().Get("contributor_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error()))
		return
	}

	events, err := h.svc.AuditTrail(ctx, contributorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditTrailResponse(contributorID, events))
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
