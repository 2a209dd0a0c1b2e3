package handler

import (
	"time"

	"fecgate/internal/compliance"
	"fecgate/internal/ledger"
	id "fecgate/pkg/domain"
	dErrors "fecgate/pkg/domain-errors"
	"fecgate/pkg/money"
)

// EvaluateRequest is the donation form submission. Amounts arrive as decimal
// dollar strings and are parsed to cents; floats are never accepted.
type EvaluateRequest struct {
	ContributorID      string      `json:"contributor_id"`
	CampaignID         string      `json:"campaign_id"`
	Amount             money.Cents `json:"amount"`
	SubmittedAt        time.Time   `json:"submitted_at,omitzero"`
	WalletOrPaymentRef string      `json:"wallet_or_payment_ref,omitempty"`

	contributorID id.ContributorID
	campaignID    id.CampaignID
}

// Validate parses the identifier fields. Amount bounds are the engine's
// concern; the handler only rejects structurally broken input.
func (r *EvaluateRequest) Validate() error {
	contributorID, err := id.ParseContributorID(r.ContributorID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error())
	}
	campaignID, err := id.ParseCampaignID(r.CampaignID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "campaign_id: "+err.Error())
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	r.contributorID = contributorID
	r.campaignID = campaignID
	return nil
}

// Contribution converts the validated request to the domain type.
func (r *EvaluateRequest) Contribution() ledger.Contribution {
	return ledger.Contribution{
		ContributorID:      r.contributorID,
		CampaignID:         r.campaignID,
		Amount:             r.Amount,
		SubmittedAt:        r.SubmittedAt,
		WalletOrPaymentRef: r.WalletOrPaymentRef,
	}
}

// ProjectRequest asks whether a recurring pledge would breach the cumulative
// cap before its schedule ends.
type ProjectRequest struct {
	ContributorID string      `json:"contributor_id"`
	CampaignID    string      `json:"campaign_id"`
	Amount        money.Cents `json:"amount"`
	Frequency     string      `json:"frequency"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       *time.Time  `json:"end_date,omitempty"`

	contributorID id.ContributorID
	campaignID    id.CampaignID
	frequency     compliance.Frequency
}

func (r *ProjectRequest) Validate() error {
	contributorID, err := id.ParseContributorID(r.ContributorID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "contributor_id: "+err.Error())
	}
	campaignID, err := id.ParseCampaignID(r.CampaignID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "campaign_id: "+err.Error())
	}
	freq, err := compliance.ParseFrequency(r.Frequency)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if r.StartDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start_date is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return dErrors.New(dErrors.CodeValidation, "end_date precedes start_date")
	}
	r.contributorID = contributorID
	r.campaignID = campaignID
	r.frequency = freq
	return nil
}
