package gateway

import (
	"context"

	gatewaydm "github.com/frahmantamala/giving-api/internal/core/datamodel/gateway"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

// RepositoryAPI is the persistence surface for gateway credential rows.
type RepositoryAPI interface {
	Save(gw *gatewaydm.Gateway) error
	Load(churchID, id string) (*gatewaydm.Gateway, error)
	LoadAll(churchID string) ([]*gatewaydm.Gateway, error)
	LoadByProvider(churchID, provider string) (*gatewaydm.Gateway, error)
	Delete(churchID, id string) error
}

// ProviderAPI is the subset of the payment-provider client the credential
// store needs for webhook and product bookkeeping.
type ProviderAPI interface {
	CreateWebhookEndpoint(ctx context.Context, secretKey, endpointURL string) (*stripe.WebhookEndpoint, error)
	DeleteWebhooksByChurchID(ctx context.Context, secretKey, churchID string) error
	CreateProduct(ctx context.Context, secretKey, name string) (string, error)
}

// CipherAPI is the reversible encryption helper for stored credentials.
type CipherAPI interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
