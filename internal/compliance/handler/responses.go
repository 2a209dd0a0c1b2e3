package handler

import (
	"time"

	"fecgate/internal/compliance"
	"fecgate/internal/ledger"
	id "fecgate/pkg/domain"
	"fecgate/pkg/money"
	audit "fecgate/pkg/platform/audit"
)

// VerdictResponse is the wire form of a compliance verdict. Policy rejects
// are 200 responses: the engine decided, and the decision is the payload.
type VerdictResponse struct {
	Decision        string       `json:"decision"`
	Reason          string       `json:"reason"`
	PriorTotal      money.Cents  `json:"prior_total"`
	Amount          money.Cents  `json:"amount"`
	NewTotal        *money.Cents `json:"new_total,omitempty"`
	EntryID         string       `json:"entry_id,omitempty"`
	TransactionCode string       `json:"transaction_code,omitempty"`
	EvaluatedAt     time.Time    `json:"evaluated_at"`
}

func toVerdictResponse(v *compliance.Verdict) VerdictResponse {
	resp := VerdictResponse{
		Decision:        string(v.Decision),
		Reason:          string(v.Reason),
		PriorTotal:      v.PriorTotal,
		Amount:          v.Amount,
		NewTotal:        v.NewTotal,
		TransactionCode: v.TransactionCode,
		EvaluatedAt:     v.EvaluatedAt,
	}
	if !v.EntryID.IsNil() {
		resp.EntryID = v.EntryID.String()
	}
	return resp
}

// CapacityResponse reports remaining headroom under the cumulative cap.
type CapacityResponse struct {
	ContributorID string      `json:"contributor_id"`
	CampaignID    string      `json:"campaign_id"`
	PriorTotal    money.Cents `json:"prior_total"`
	Remaining     money.Cents `json:"remaining"`
	CumulativeCap money.Cents `json:"cumulative_cap"`
}

// ProjectionResponse is the wire form of a recurring-schedule projection.
type ProjectionResponse struct {
	TotalAmount     money.Cents `json:"total_amount"`
	PaymentCount    int         `json:"payment_count"`
	WillExceedLimit bool        `json:"will_exceed_limit"`
	ExceedsOn       *time.Time  `json:"exceeds_on,omitempty"`
}

// EntryResponse is one accepted ledger entry.
type EntryResponse struct {
	EntryID         string      `json:"entry_id"`
	TransactionCode string      `json:"transaction_code"`
	ContributorID   string      `json:"contributor_id"`
	CampaignID      string      `json:"campaign_id"`
	Amount          money.Cents `json:"amount"`
	SubmittedAt     time.Time   `json:"submitted_at"`
	RecordedAt      time.Time   `json:"recorded_at"`
}

// ListResponse is a paginated ledger listing.
type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// AuditEventResponse is one recorded evaluation on the compliance trail.
type AuditEventResponse struct {
	Action          string      `json:"action"`
	Decision        string      `json:"decision,omitempty"`
	Reason          string      `json:"reason,omitempty"`
	Amount          money.Cents `json:"amount"`
	PriorTotal      money.Cents `json:"prior_total"`
	TransactionCode string      `json:"transaction_code,omitempty"`
	RequestID       string      `json:"request_id,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
}

// AuditTrailResponse is a contributor's evaluation history, oldest first.
type AuditTrailResponse struct {
	ContributorID string               `json:"contributor_id"`
	Events        []AuditEventResponse `json:"events"`
}

func toAuditTrailResponse(contributorID id.ContributorID, events []audit.Event) AuditTrailResponse {
	resp := AuditTrailResponse{
		ContributorID: contributorID.String(),
		Events:        make([]AuditEventResponse, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, AuditEventResponse{
			Action:          e.Action,
			Decision:        e.Decision,
			Reason:          e.Reason,
			Amount:          e.Amount,
			PriorTotal:      e.PriorTotal,
			TransactionCode: e.TransactionCode,
			RequestID:       e.RequestID,
			Timestamp:       e.Timestamp,
		})
	}
	return resp
}

func toListResponse(entries []ledger.Entry, total, limit, offset int) ListResponse {
	resp := ListResponse{
		Entries: make([]EntryResponse, 0, len(entries)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			EntryID:         e.ID.String(),
			TransactionCode: e.TransactionCode,
			ContributorID:   e.ContributorID.String(),
			CampaignID:      e.CampaignID.String(),
			Amount:          e.Amount,
			SubmittedAt:     e.SubmittedAt,
			RecordedAt:      e.RecordedAt,
		})
	}
	return resp
}
