package fund

import (
	"github.com/frahmantamala/giving-api/internal/core/common/validation"
)

type SaveFundDTO struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	TaxDeductible bool   `json:"taxDeductible"`
	ProductID     string `json:"productId,omitempty"`
}

func (d *SaveFundDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("name", d.Name).Required().MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
