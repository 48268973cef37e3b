package subscription

import (
	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/core/common/validation"
	"github.com/frahmantamala/giving-api/internal/donation"
)

// CreateSubscriptionDTO starts a recurring gift. Interval defaults to
// monthly.
type CreateSubscriptionDTO struct {
	PersonID        string                       `json:"personId"`
	CustomerID      string                       `json:"customerId"`
	PaymentMethodID string                       `json:"paymentMethodId"`
	Amount          float64                      `json:"amount"`
	Interval        string                       `json:"interval,omitempty"`
	IntervalCount   int                          `json:"intervalCount,omitempty"`
	Funds           []donation.FundAllocationDTO `json:"funds"`
}

func (d *CreateSubscriptionDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("personId", d.PersonID).Required()
	validator.Field("customerId", d.CustomerID).Required()
	validator.Field("paymentMethodId", d.PaymentMethodID).Required()
	validator.Field("amount", d.Amount).Required().Positive(apperrors.ErrCodeInvalidAmount)
	validator.Field("interval", d.Interval).OneOf("day", "week", "month", "year")

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

// UpdatePaymentMethodDTO swaps the payment method on a provider-side plan.
type UpdatePaymentMethodDTO struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

func (d *UpdatePaymentMethodDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("paymentMethodId", d.PaymentMethodID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// SubscriptionDTO is the outward shape: local mirror plus its allocation
// template.
type SubscriptionDTO struct {
	ID         string                       `json:"id"`
	ChurchID   string                       `json:"churchId"`
	PersonID   string                       `json:"personId"`
	CustomerID string                       `json:"customerId"`
	Funds      []donation.FundAllocationDTO `json:"funds"`
}
