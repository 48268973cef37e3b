package paymentmethod

import (
	"context"

	customerdm "github.com/frahmantamala/giving-api/internal/core/datamodel/customer"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

// CustomerRepositoryAPI persists the person-to-provider-customer mapping.
type CustomerRepositoryAPI interface {
	Save(c *customerdm.Customer) error
	Load(churchID, id string) (*customerdm.Customer, error)
	LoadByPerson(churchID, personID string) (*customerdm.Customer, error)
	Delete(churchID, id string) error
}

// RepositoryAPI persists stored payment instrument references.
type RepositoryAPI interface {
	Save(pm *customerdm.PaymentMethod) error
	Load(churchID, id string) (*customerdm.PaymentMethod, error)
	LoadByPerson(churchID, personID string) ([]*customerdm.PaymentMethod, error)
	Delete(churchID, id string) error
}

// GatewayAPI resolves the tenant's secret key.
type GatewayAPI interface {
	LoadPrivateKey(ctx context.Context, churchID string) (string, error)
}

// ProviderAPI is the subset of the payment-provider client used for stored
// payment instruments.
type ProviderAPI interface {
	CreateCustomer(ctx context.Context, secretKey, email, name string) (string, error)
	AttachPaymentMethod(ctx context.Context, secretKey, paymentMethodID, customerID string) (*stripe.PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, secretKey, paymentMethodID string) error
	UpdateCard(ctx context.Context, secretKey, paymentMethodID string, card stripe.CardUpdate) (*stripe.PaymentMethod, error)
	CreateBankAccount(ctx context.Context, secretKey, customerID, source string) (*stripe.BankAccount, error)
	UpdateBank(ctx context.Context, secretKey, bankAccountID, customerID string, bank stripe.BankUpdate) (*stripe.BankAccount, error)
	VerifyBank(ctx context.Context, secretKey, bankAccountID, customerID string, amounts [2]int64) (*stripe.BankVerificationResult, error)
	DeleteBankAccount(ctx context.Context, secretKey, customerID, bankAccountID string) error
	GetCustomerPaymentMethods(ctx context.Context, secretKey, customerID string) ([]stripe.PaymentMethod, error)
}
