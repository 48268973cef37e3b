package gateway

import (
	"github.com/frahmantamala/giving-api/internal/core/common/validation"
	gatewaydm "github.com/frahmantamala/giving-api/internal/core/datamodel/gateway"
)

type SaveGatewayDTO struct {
	ID         string `json:"id,omitempty"`
	Provider   string `json:"provider"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	PayFees    bool   `json:"payFees"`
}

func (d *SaveGatewayDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("provider", d.Provider).Required().OneOf(gatewaydm.ProviderStripe)
	validator.Field("publicKey", d.PublicKey).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// GatewayDTO is the outward shape of a gateway; key material never leaves
// the service, only the publishable key does.
type GatewayDTO struct {
	ID        string `json:"id"`
	ChurchID  string `json:"churchId"`
	Provider  string `json:"provider"`
	PublicKey string `json:"publicKey"`
	ProductID string `json:"productId,omitempty"`
	PayFees   bool   `json:"payFees"`
}

func toDTO(gw *gatewaydm.Gateway) GatewayDTO {
	return GatewayDTO{
		ID:        gw.ID,
		ChurchID:  gw.ChurchID,
		Provider:  gw.Provider,
		PublicKey: gw.PublicKey,
		ProductID: gw.ProductID,
		PayFees:   gw.PayFees,
	}
}
