package donation

import (
	"context"
	"time"

	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
	"github.com/frahmantamala/giving-api/internal/fees"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

// BatchRepositoryAPI is the persistence surface for donation batches.
type BatchRepositoryAPI interface {
	Save(batch *donationdm.DonationBatch) error
	Load(churchID, id string) (*donationdm.DonationBatch, error)
	LoadCurrent(churchID string) (*donationdm.DonationBatch, error)
	LoadAll(churchID string) ([]*donationdm.DonationBatch, error)
	Delete(churchID, id string) error
}

// RepositoryAPI is the persistence surface for donation header rows.
type RepositoryAPI interface {
	Save(donation *donationdm.Donation) error
	Load(churchID, id string) (*donationdm.Donation, error)
	LoadByPerson(churchID, personID string) ([]*donationdm.Donation, error)
	LoadByBatch(churchID, batchID string) ([]*donationdm.Donation, error)
	LoadByDateRange(churchID string, from, to time.Time) ([]*donationdm.Donation, error)
	Delete(churchID, id string) error
}

// FundDonationRepositoryAPI is the persistence surface for fund allocations.
type FundDonationRepositoryAPI interface {
	Save(fd *donationdm.FundDonation) error
	LoadByDonation(churchID, donationID string) ([]*donationdm.FundDonation, error)
	LoadByFund(churchID, fundID string) ([]*donationdm.FundDonation, error)
	DeleteByDonation(churchID, donationID string) error
}

// GatewayAPI is what the donation flow needs from the credential store.
type GatewayAPI interface {
	LoadPrivateKey(ctx context.Context, churchID string) (string, error)
	FeeOverrides(ctx context.Context, churchID, kind string) (fees.Overrides, error)
}

// ProviderAPI is the subset of the payment-provider client used for one-time
// gifts.
type ProviderAPI interface {
	Donate(ctx context.Context, secretKey string, req stripe.ChargeRequest) (*stripe.ChargeResult, error)
	CreateCheckoutSession(ctx context.Context, secretKey string, amount float64, successURL, cancelURL string) (string, error)
}

// FundAPI resolves funds for allocation rows.
type FundAPI interface {
	GetOrCreateGeneral(ctx context.Context, churchID string) (*funddm.Fund, error)
	Load(ctx context.Context, churchID, id string) (*funddm.Fund, error)
}
