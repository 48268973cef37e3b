package paymentmethod

import (
	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/core/common/validation"
)

// AddCardDTO attaches a tokenized card to a person, creating the provider
// customer lazily on first use.
type AddCardDTO struct {
	PersonID        string `json:"personId"`
	PaymentMethodID string `json:"paymentMethodId"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
}

func (d *AddCardDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("personId", d.PersonID).Required()
	validator.Field("paymentMethodId", d.PaymentMethodID).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// AddBankDTO attaches a tokenized bank account. Bank accounts require
// micro-deposit verification before they can be charged.
type AddBankDTO struct {
	PersonID string `json:"personId"`
	Source   string `json:"source"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

func (d *AddBankDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("personId", d.PersonID).Required()
	validator.Field("source", d.Source).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateCardDTO edits card expiry on the provider side.
type UpdateCardDTO struct {
	ExpMonth int `json:"expMonth"`
	ExpYear  int `json:"expYear"`
}

// UpdateBankDTO edits bank account holder details on the provider side.
type UpdateBankDTO struct {
	AccountHolderName string `json:"accountHolderName,omitempty"`
	AccountHolderType string `json:"accountHolderType,omitempty"`
}

// VerifyBankDTO carries the two micro-deposit amounts in cents.
type VerifyBankDTO struct {
	Amounts [2]int64 `json:"amounts"`
}

func (d *VerifyBankDTO) Validate() error {
	if d.Amounts[0] <= 0 || d.Amounts[1] <= 0 {
		return apperrors.NewValidationFieldError("amounts", "both verification amounts are required", apperrors.ErrCodeValidationFailed)
	}
	return nil
}
