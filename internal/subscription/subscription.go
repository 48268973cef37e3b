package subscription

import (
	"context"

	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
	subscriptiondm "github.com/frahmantamala/giving-api/internal/core/datamodel/subscription"
	"github.com/frahmantamala/giving-api/internal/gateway"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

// RepositoryAPI persists local subscription mirrors keyed by the provider's
// subscription id.
type RepositoryAPI interface {
	Save(sub *subscriptiondm.Subscription) error
	Load(churchID, id string) (*subscriptiondm.Subscription, error)
	LoadByPerson(churchID, personID string) ([]*subscriptiondm.Subscription, error)
	LoadByCustomer(churchID, customerID string) ([]*subscriptiondm.Subscription, error)
	Delete(churchID, id string) error
}

// FundRepositoryAPI persists a subscription's allocation template.
type FundRepositoryAPI interface {
	Save(sf *subscriptiondm.SubscriptionFund) error
	LoadBySubscription(churchID, subscriptionID string) ([]*subscriptiondm.SubscriptionFund, error)
	DeleteBySubscription(churchID, subscriptionID string) error
}

// GatewayAPI is what recurring billing needs from the credential store.
type GatewayAPI interface {
	LoadChargeConfig(ctx context.Context, churchID string) (*gateway.ChargeConfig, error)
}

// ProviderAPI is the subset of the payment-provider client used for
// recurring plans.
type ProviderAPI interface {
	CreateSubscription(ctx context.Context, secretKey string, req stripe.SubscriptionRequest) (*stripe.SubscriptionResult, error)
	UpdateSubscription(ctx context.Context, secretKey, subscriptionID, paymentMethodRef string) error
	DeleteSubscription(ctx context.Context, secretKey, subscriptionID string) error
}

// FundAPI supplies the fallback fund when an allocation template references
// a removed fund.
type FundAPI interface {
	GetOrCreateGeneral(ctx context.Context, churchID string) (*funddm.Fund, error)
}
