// Package handler exposes the KYC registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fecgate/internal/kyc"
	id "fecgate/pkg/domain"
	dErrors "fecgate/pkg/domain-errors"
	"fecgate/pkg/platform/httputil"
	"fecgate/pkg/requestcontext"
)

// Service is the registry surface the handler needs.
type Service interface {
	Status(ctx context.Context, contributorID id.ContributorID) (kyc.Status, error)
	MarkVerified(ctx context.Context, contributorID id.ContributorID, at time.Time) error
}

// Handler serves the KYC endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates a KYC Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the KYC routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/kyc", func(r chi.Router) {
		r.Post("/verify", h.handleVerify)
		r.Get("/status/{contributorID}", h.handleStatus)
	})
}

// VerifyRequest marks a contributor as identity-verified. Idempotent: the
// first verification time wins on repeat calls.
type VerifyRequest struct {
	ContributorID string    `json:"contributor_id"`
	VerifiedAt    time.Time `json:"verified_at,omitzero"`

	contributorID id.ContributorID
}

func (r *VerifyRequest) Validate() error {
	contributorID, err := id.ParseContributorID(r.ContributorID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error())
	}
	r.contributorID = contributorID
	return nil
}

// StatusResponse is the wire form of a contributor's KYC status.
type StatusResponse struct {
	ContributorID string     `json:"contributor_id"`
	Verified      bool       `json:"verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	at := req.VerifiedAt
	if at.IsZero() {
		at = requestcontext.Now(ctx)
	}
	if err := h.svc.MarkVerified(ctx, req.contributorID, at); err != nil {
		h.logger.ErrorContext(ctx, "kyc verification failed",
			"request_id", requestID,
			"contributor_id", req.contributorID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contributorID, err := id.ParseContributorID(chi.URLParam(r, "contributorID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error()))
		return
	}

	status, err := h.svc.Status(ctx, contributorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "kyc status lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"contributor_id", contributorID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		ContributorID: status.ContributorID.String(),
		Verified:      status.Verified,
		VerifiedAt:    status.VerifiedAt,
	})
}
