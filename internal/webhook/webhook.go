package webhook

import (
	"context"

	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	eventlogdm "github.com/frahmantamala/giving-api/internal/core/datamodel/eventlog"
	"github.com/frahmantamala/giving-api/internal/donation"
)

// EventLogRepositoryAPI persists the inbound-event ledger. Load returns
// (nil, nil) when the id has never been seen.
type EventLogRepositoryAPI interface {
	Save(log *eventlogdm.EventLog) error
	Load(id string) (*eventlogdm.EventLog, error)
	LoadByChurch(churchID string) ([]*eventlogdm.EventLog, error)
	LoadUnresolvedFailures(churchID string) ([]*eventlogdm.EventLog, error)
	Resolve(churchID, id string) error
}

// GatewayAPI resolves the tenant's webhook signing secret.
type GatewayAPI interface {
	LoadWebhookSecret(ctx context.Context, churchID, provider string) (string, error)
}

// DonationRecorderAPI writes verified charges into the donation ledger.
type DonationRecorderAPI interface {
	Record(ctx context.Context, churchID string, dto donation.RecordDonationDTO) (*donationdm.Donation, error)
}

// SubscriptionSyncAPI is what webhook processing needs from subscriptions:
// allocation templates for recurring charges, and local teardown when the
// provider reports a cancellation.
type SubscriptionSyncAPI interface {
	ResolveAllocationsForCharge(ctx context.Context, churchID, subscriptionID string, amount float64) ([]donation.FundAllocationDTO, error)
	CancelLocal(ctx context.Context, churchID, subscriptionID string) error
}

// CustomerLookupAPI maps a provider customer id back to a person.
type CustomerLookupAPI interface {
	LookupPerson(ctx context.Context, churchID, customerID string) (string, error)
}

// VerifierAPI checks a raw payload against its signature header.
type VerifierAPI interface {
	Verify(payload []byte, sigHeader, secret string) (*VerifiedEvent, error)
}
