package subscription

import (
	"context"
	"log/slog"

	apperrors "github.com/frahmantamala/giving-api/internal"
	subscriptiondm "github.com/frahmantamala/giving-api/internal/core/datamodel/subscription"
	"github.com/frahmantamala/giving-api/internal/core/events"
	"github.com/frahmantamala/giving-api/internal/donation"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

type Service struct {
	repo     RepositoryAPI
	fundRepo FundRepositoryAPI
	funds    FundAPI
	gateways GatewayAPI
	provider ProviderAPI
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	fundRepo FundRepositoryAPI,
	funds FundAPI,
	gateways GatewayAPI,
	provider ProviderAPI,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		fundRepo: fundRepo,
		funds:    funds,
		gateways: gateways,
		provider: provider,
		bus:      bus,
		logger:   logger,
	}
}

// Create starts a recurring plan provider-first: the provider subscription
// exists before any local row. A local write failure leaves an active
// provider plan whose charges still land via webhook, so nothing is lost,
// only the local mirror.
func (s *Service) Create(ctx context.Context, churchID string, dto CreateSubscriptionDTO) (*SubscriptionDTO, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.gateways.LoadChargeConfig(ctx, churchID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, apperrors.ErrGatewayNotConfigured
	}

	req := stripe.SubscriptionRequest{
		CustomerID:    dto.CustomerID,
		ProductID:     cfg.ProductID,
		Amount:        dto.Amount,
		Interval:      dto.Interval,
		IntervalCount: dto.IntervalCount,
		Metadata: map[string]string{
			"churchId": churchID,
			"personId": dto.PersonID,
		},
	}
	if isBankRef(dto.PaymentMethodID) {
		req.SourceID = dto.PaymentMethodID
	} else {
		req.PaymentMethodID = dto.PaymentMethodID
	}

	result, err := s.provider.CreateSubscription(ctx, cfg.SecretKey, req)
	if err != nil {
		return nil, err
	}

	sub := &subscriptiondm.Subscription{
		ID:         result.ID,
		ChurchID:   churchID,
		PersonID:   dto.PersonID,
		CustomerID: dto.CustomerID,
	}
	if err := s.repo.Save(sub); err != nil {
		s.logger.Error("provider subscription created but local mirror failed",
			"subscription_id", result.ID, "church_id", churchID, "error", err)
		return nil, apperrors.NewInternalError("failed to save subscription", err)
	}

	for _, alloc := range dto.Funds {
		sf := &subscriptiondm.SubscriptionFund{
			ChurchID:       churchID,
			SubscriptionID: sub.ID,
			FundID:         alloc.FundID,
			Amount:         alloc.Amount,
		}
		if err := s.fundRepo.Save(sf); err != nil {
			s.logger.Error("failed to save subscription fund",
				"subscription_id", sub.ID, "fund_id", alloc.FundID, "error", err)
			return nil, apperrors.NewInternalError("failed to save subscription funds", err)
		}
	}

	s.logger.Info("subscription created",
		"subscription_id", sub.ID, "church_id", churchID, "person_id", dto.PersonID)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewSubscriptionCreatedEvent(sub.ID, churchID, dto.PersonID))
	}

	return &SubscriptionDTO{
		ID:         sub.ID,
		ChurchID:   churchID,
		PersonID:   sub.PersonID,
		CustomerID: sub.CustomerID,
		Funds:      dto.Funds,
	}, nil
}

// UpdatePaymentMethod swaps the payment method on the provider plan. Nothing
// changes locally; the mirror does not track payment methods.
func (s *Service) UpdatePaymentMethod(ctx context.Context, churchID, subscriptionID string, dto UpdatePaymentMethodDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	sub, err := s.repo.Load(churchID, subscriptionID)
	if err != nil {
		return apperrors.NewInternalError("failed to load subscription", err)
	}
	if sub == nil {
		return apperrors.ErrSubscriptionNotFound
	}

	cfg, err := s.gateways.LoadChargeConfig(ctx, churchID)
	if err != nil {
		return err
	}
	if cfg == nil {
		return apperrors.ErrGatewayNotConfigured
	}

	return s.provider.UpdateSubscription(ctx, cfg.SecretKey, subscriptionID, dto.PaymentMethodID)
}

// Cancel deletes the plan provider-first, then removes the local mirror.
func (s *Service) Cancel(ctx context.Context, churchID, subscriptionID string) error {
	sub, err := s.repo.Load(churchID, subscriptionID)
	if err != nil {
		return apperrors.NewInternalError("failed to load subscription", err)
	}
	if sub == nil {
		return apperrors.ErrSubscriptionNotFound
	}

	cfg, err := s.gateways.LoadChargeConfig(ctx, churchID)
	if err != nil {
		return err
	}
	if cfg == nil {
		return apperrors.ErrGatewayNotConfigured
	}

	if err := s.provider.DeleteSubscription(ctx, cfg.SecretKey, subscriptionID); err != nil {
		return err
	}

	return s.removeLocal(ctx, churchID, subscriptionID)
}

// CancelLocal tears down the local mirror only, for provider-initiated
// cancellations arriving via webhook. Unknown ids are a no-op because the
// provider event may concern a subscription created outside this system.
func (s *Service) CancelLocal(ctx context.Context, churchID, subscriptionID string) error {
	sub, err := s.repo.Load(churchID, subscriptionID)
	if err != nil {
		return apperrors.NewInternalError("failed to load subscription", err)
	}
	if sub == nil {
		s.logger.Info("cancel event for unknown subscription ignored",
			"subscription_id", subscriptionID, "church_id", churchID)
		return nil
	}

	return s.removeLocal(ctx, churchID, subscriptionID)
}

func (s *Service) removeLocal(ctx context.Context, churchID, subscriptionID string) error {
	if err := s.fundRepo.DeleteBySubscription(churchID, subscriptionID); err != nil {
		return apperrors.NewInternalError("failed to delete subscription funds", err)
	}
	if err := s.repo.Delete(churchID, subscriptionID); err != nil {
		return apperrors.NewInternalError("failed to delete subscription", err)
	}

	s.logger.Info("subscription canceled", "subscription_id", subscriptionID, "church_id", churchID)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewSubscriptionCanceledEvent(subscriptionID, churchID))
	}
	return nil
}

// ResolveAllocationsForCharge turns a subscription's allocation template into
// concrete allocations for one charge. Allocations pointing at removed funds
// are redirected to the General Fund; an unknown subscription or empty
// template yields nil, which the recorder resolves to a full General Fund
// allocation.
func (s *Service) ResolveAllocationsForCharge(ctx context.Context, churchID, subscriptionID string, amount float64) ([]donation.FundAllocationDTO, error) {
	template, err := s.fundRepo.LoadBySubscription(churchID, subscriptionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription funds", err)
	}
	if len(template) == 0 {
		return nil, nil
	}

	var generalID string
	allocations := make([]donation.FundAllocationDTO, 0, len(template))
	for _, sf := range template {
		fundID := sf.FundID
		if sf.FundRemoved {
			if generalID == "" {
				general, err := s.funds.GetOrCreateGeneral(ctx, churchID)
				if err != nil {
					return nil, err
				}
				generalID = general.ID
			}
			s.logger.Info("allocation redirected to general fund",
				"subscription_id", subscriptionID, "removed_fund_id", sf.FundID)
			fundID = generalID
		}
		allocations = append(allocations, donation.FundAllocationDTO{FundID: fundID, Amount: sf.Amount})
	}

	return allocations, nil
}

func (s *Service) Load(ctx context.Context, churchID, id string) (*SubscriptionDTO, error) {
	sub, err := s.repo.Load(churchID, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription", err)
	}
	if sub == nil {
		return nil, apperrors.ErrSubscriptionNotFound
	}

	return s.toDTO(ctx, sub)
}

func (s *Service) LoadByPerson(ctx context.Context, churchID, personID string) ([]*SubscriptionDTO, error) {
	subs, err := s.repo.LoadByPerson(churchID, personID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscriptions", err)
	}

	result := make([]*SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		dto, err := s.toDTO(ctx, sub)
		if err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return result, nil
}

// LoadByCustomer lists a provider customer's recurring plans. Useful when a
// donor is known by their provider customer id rather than a person record.
func (s *Service) LoadByCustomer(ctx context.Context, churchID, customerID string) ([]*SubscriptionDTO, error) {
	subs, err := s.repo.LoadByCustomer(churchID, customerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscriptions", err)
	}

	result := make([]*SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		dto, err := s.toDTO(ctx, sub)
		if err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return result, nil
}

func (s *Service) toDTO(ctx context.Context, sub *subscriptiondm.Subscription) (*SubscriptionDTO, error) {
	template, err := s.fundRepo.LoadBySubscription(sub.ChurchID, sub.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load subscription funds", err)
	}

	funds := make([]donation.FundAllocationDTO, 0, len(template))
	for _, sf := range template {
		funds = append(funds, donation.FundAllocationDTO{FundID: sf.FundID, Amount: sf.Amount})
	}

	return &SubscriptionDTO{
		ID:         sub.ID,
		ChurchID:   sub.ChurchID,
		PersonID:   sub.PersonID,
		CustomerID: sub.CustomerID,
		Funds:      funds,
	}, nil
}

func isBankRef(id string) bool {
	return len(id) >= 3 && id[:3] == "ba_"
}
