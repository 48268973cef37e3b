package paymentmethod

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/frahmantamala/giving-api/internal"
	customerdm "github.com/frahmantamala/giving-api/internal/core/datamodel/customer"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

type Service struct {
	repo      RepositoryAPI
	customers CustomerRepositoryAPI
	gateways  GatewayAPI
	provider  ProviderAPI
	logger    *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	customers CustomerRepositoryAPI,
	gateways GatewayAPI,
	provider ProviderAPI,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		gateways:  gateways,
		provider:  provider,
		logger:    logger,
	}
}

// secretKeyFor resolves the tenant's key or fails with GatewayNotConfigured.
func (s *Service) secretKeyFor(ctx context.Context, churchID string) (string, error) {
	secretKey, err := s.gateways.LoadPrivateKey(ctx, churchID)
	if err != nil {
		return "", err
	}
	if secretKey == "" {
		return "", apperrors.ErrGatewayNotConfigured
	}
	return secretKey, nil
}

// getOrCreateCustomer returns the person's provider customer, creating one
// on first use.
func (s *Service) getOrCreateCustomer(ctx context.Context, secretKey, churchID, personID, email, name string) (*customerdm.Customer, error) {
	existing, err := s.customers.LoadByPerson(churchID, personID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load customer", err)
	}
	if existing != nil {
		return existing, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, secretKey, email, name)
	if err != nil {
		return nil, err
	}

	c := &customerdm.Customer{
		ID:       customerID,
		ChurchID: churchID,
		PersonID: personID,
	}
	if err := s.customers.Save(c); err != nil {
		return nil, apperrors.NewInternalError("failed to save customer", err)
	}

	s.logger.Info("customer created", "customer_id", customerID, "church_id", churchID, "person_id", personID)
	return c, nil
}

// AddCard attaches a tokenized card to the person's provider customer and
// stores the reference.
func (s *Service) AddCard(ctx context.Context, churchID string, dto AddCardDTO) (*customerdm.PaymentMethod, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	secretKey, err := s.secretKeyFor(ctx, churchID)
	if err != nil {
		return nil, err
	}

	c, err := s.getOrCreateCustomer(ctx, secretKey, churchID, dto.PersonID, dto.Email, dto.Name)
	if err != nil {
		return nil, err
	}

	attached, err := s.provider.AttachPaymentMethod(ctx, secretKey, dto.PaymentMethodID, c.ID)
	if err != nil {
		return nil, err
	}

	pm := &customerdm.PaymentMethod{
		ID:         attached.ID,
		ChurchID:   churchID,
		PersonID:   dto.PersonID,
		CustomerID: c.ID,
	}
	if err := s.repo.Save(pm); err != nil {
		return nil, apperrors.NewInternalError("failed to save payment method", err)
	}

	s.logger.Info("card attached", "payment_method_id", pm.ID, "church_id", churchID, "person_id", dto.PersonID)
	return pm, nil
}

// AddBank attaches a tokenized bank account as a legacy source.
func (s *Service) AddBank(ctx context.Context, churchID string, dto AddBankDTO) (*customerdm.PaymentMethod, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	secretKey, err := s.secretKeyFor(ctx, churchID)
	if err != nil {
		return nil, err
	}

	c, err := s.getOrCreateCustomer(ctx, secretKey, churchID, dto.PersonID, dto.Email, dto.Name)
	if err != nil {
		return nil, err
	}

	bank, err := s.provider.CreateBankAccount(ctx, secretKey, c.ID, dto.Source)
	if err != nil {
		return nil, err
	}

	pm := &customerdm.PaymentMethod{
		ID:         bank.ID,
		ChurchID:   churchID,
		PersonID:   dto.PersonID,
		CustomerID: c.ID,
	}
	if err := s.repo.Save(pm); err != nil {
		return nil, apperrors.NewInternalError("failed to save payment method", err)
	}

	s.logger.Info("bank account attached", "payment_method_id", pm.ID, "church_id", churchID, "person_id", dto.PersonID)
	return pm, nil
}

// UpdateCard edits card expiry on the provider side; nothing changes locally.
func (s *Service) UpdateCard(ctx context.Context, churchID, id string, dto UpdateCardDTO) error {
	secretKey, err := s.secretKeyFor(ctx, churchID)
	if err != nil {
		return err
	}

	pm, err := s.lookup(churchID, id)
	if err != nil {
		return err
	}

	_, err = s.provider.UpdateCard(ctx, secretKey, pm.ID, stripe.CardUpdate{
		ExpMonth: dto.ExpMonth,
		ExpYear:  dto.ExpYear,
	})
	return err
}

// UpdateBank edits bank holder details on the provider side.
func (s *Service) UpdateBank(ctx context.Context, churchID, id string, dto UpdateBankDTO) error {
	secretKey, err := s.secretKeyFor(ctx, churchID)
	if err != nil {
		return err
	}

	pm, err := s.lookup(churchID, id)
	if err != nil {
		return err
	}

	_, err = s.provider.UpdateBank(ctx, secretKey, pm.ID, pm.CustomerID, stripe.BankUpdate{
		AccountHolderName: dto.AccountHolderName,
		AccountHolderType: dto.AccountHolderType,
	})
	return err
}

// VerifyBank submits micro-deposit amounts. The provider's verdict comes back
// as a result, not an error: a wrong amount is a normal outcome the donor
// retries, not a failure of the call.
func (s *Service) VerifyBank(ctx context.Context, churchID, id string, dto VerifyBankDTO) (*stripe.BankVerificationResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	secretKey, err := s.secretKeyFor(ctx, churchID)
	if err != nil {
		return nil, err
	}

	pm, err := s.lookup(churchID, id)
	if err != nil {
		return nil, err
	}

	return s.provider.VerifyBank(ctx, secretKey, pm.ID, pm.CustomerID, dto.Amounts)
}

// Detach removes a stored instrument, provider-first. Cards detach as
// payment methods, bank accounts delete as sources; the id prefix decides.
func (s *Service) Detach(ctx context.Context, churchID, id string) error {
	secretKey, err := s.secretKeyFor(ctx, churchID)
	if err != nil {
		return err
	}

	pm, err := s.lookup(churchID, id)
	if err != nil {
		return err
	}

	if strings.HasPrefix(pm.ID, "ba_") {
		err = s.provider.DeleteBankAccount(ctx, secretKey, pm.CustomerID, pm.ID)
	} else {
		err = s.provider.DetachPaymentMethod(ctx, secretKey, pm.ID)
	}
	if err != nil {
		return err
	}

	if err := s.repo.Delete(churchID, id); err != nil {
		return apperrors.NewInternalError("failed to delete payment method", err)
	}

	s.logger.Info("payment method detached", "payment_method_id", id, "church_id", churchID)
	return nil
}

// LoadByPerson lists the person's stored instruments from the local table.
func (s *Service) LoadByPerson(ctx context.Context, churchID, personID string) ([]*customerdm.PaymentMethod, error) {
	methods, err := s.repo.LoadByPerson(churchID, personID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment methods", err)
	}
	return methods, nil
}

// LookupPerson maps a provider customer id back to a person for webhook
// enrichment.
func (s *Service) LookupPerson(ctx context.Context, churchID, customerID string) (string, error) {
	c, err := s.customers.Load(churchID, customerID)
	if err != nil {
		return "", apperrors.NewInternalError("failed to load customer", err)
	}
	if c == nil {
		return "", apperrors.ErrCustomerNotFound
	}
	return c.PersonID, nil
}

func (s *Service) lookup(churchID, id string) (*customerdm.PaymentMethod, error) {
	pm, err := s.repo.Load(churchID, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load payment method", err)
	}
	if pm == nil {
		return nil, apperrors.NewNotFoundError("Payment method not found", apperrors.ErrCodeValidationFailed)
	}
	return pm, nil
}
