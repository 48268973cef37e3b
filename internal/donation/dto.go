package donation

import (
	"time"

	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/core/common/validation"
)

// FundAllocationDTO is one slice of a gift directed at a fund.
type FundAllocationDTO struct {
	FundID string  `json:"fundId"`
	Amount float64 `json:"amount"`
}

// RecordDonationDTO records a gift directly into the ledger without touching
// the payment provider (imports, checks, corrections).
type RecordDonationDTO struct {
	BatchID       string              `json:"batchId,omitempty"`
	PersonID      *string             `json:"personId,omitempty"`
	DonationDate  time.Time           `json:"donationDate,omitempty"`
	Amount        float64             `json:"amount"`
	Method        string              `json:"method,omitempty"`
	MethodDetails string              `json:"methodDetails,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	Funds         []FundAllocationDTO `json:"funds"`
}

func (d *RecordDonationDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", d.Amount).Required().Positive(apperrors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	for _, f := range d.Funds {
		if f.Amount <= 0 {
			return apperrors.NewValidationFieldError("funds", "fund allocation amounts must be positive", apperrors.ErrCodeInvalidAmount)
		}
	}
	return nil
}

// ChargeDTO is a one-time gift executed against the tenant's gateway.
type ChargeDTO struct {
	PersonID        *string             `json:"personId,omitempty"`
	CustomerID      string              `json:"customerId"`
	PaymentMethodID string              `json:"paymentMethodId,omitempty"`
	Amount          float64             `json:"amount"`
	CoverFees       bool                `json:"coverFees"`
	Notes           string              `json:"notes,omitempty"`
	Funds           []FundAllocationDTO `json:"funds"`
}

func (d *ChargeDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("customerId", d.CustomerID).Required()
	validator.Field("amount", d.Amount).Required().Positive(apperrors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	for _, f := range d.Funds {
		if f.Amount <= 0 {
			return apperrors.NewValidationFieldError("funds", "fund allocation amounts must be positive", apperrors.ErrCodeInvalidAmount)
		}
	}
	return nil
}

// CheckoutDTO starts a hosted checkout session for donors without a stored
// payment method.
type CheckoutDTO struct {
	Amount     float64 `json:"amount"`
	SuccessURL string  `json:"successUrl"`
	CancelURL  string  `json:"cancelUrl"`
}

func (d *CheckoutDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", d.Amount).Required().Positive(apperrors.ErrCodeInvalidAmount)
	validator.Field("successUrl", d.SuccessURL).Required()
	validator.Field("cancelUrl", d.CancelURL).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// FeeEstimateDTO asks what a donor should add to cover processing fees.
type FeeEstimateDTO struct {
	Amount float64 `json:"amount"`
	Kind   string  `json:"type"`
}

type FeeEstimateResponse struct {
	Amount float64 `json:"amount"`
	Kind   string  `json:"type"`
	Fee    float64 `json:"fee"`
	Total  float64 `json:"total"`
}

// SummaryEntry is one fund's giving total for one week.
type SummaryEntry struct {
	WeekStart time.Time `json:"weekStart"`
	FundID    string    `json:"fundId"`
	FundName  string    `json:"fundName"`
	Total     float64   `json:"total"`
}

// BatchSummaryEntry is one fund's slice of a batch total.
type BatchSummaryEntry struct {
	FundID   string  `json:"fundId"`
	FundName string  `json:"fundName"`
	Total    float64 `json:"total"`
}
