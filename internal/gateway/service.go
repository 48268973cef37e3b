package gateway

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/giving-api/internal"
	gatewaydm "github.com/frahmantamala/giving-api/internal/core/datamodel/gateway"
	"github.com/frahmantamala/giving-api/internal/fees"
)

// Service is the gateway credential store. It is the only component that
// touches encrypted key material; everything else asks it for decrypted
// secrets at call time.
type Service struct {
	repo     RepositoryAPI
	provider ProviderAPI
	cipher   CipherAPI
	baseURL  string
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, provider ProviderAPI, cipher CipherAPI, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		cipher:   cipher,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// LoadPrivateKey returns the tenant's decrypted secret key, or "" when no
// gateway is configured or the first row has no key. Callers must treat ""
// as GatewayNotConfigured and never hand it to the provider.
func (s *Service) LoadPrivateKey(ctx context.Context, churchID string) (string, error) {
	gateways, err := s.repo.LoadAll(churchID)
	if err != nil {
		return "", errors.NewInternalError("failed to load gateways", err)
	}
	if len(gateways) == 0 || gateways[0].PrivateKey == "" {
		return "", nil
	}

	secret, err := s.cipher.Decrypt(gateways[0].PrivateKey)
	if err != nil {
		s.logger.Error("failed to decrypt gateway private key", "church_id", churchID, "error", err)
		return "", errors.NewInternalError("failed to decrypt gateway credentials", err)
	}
	return secret, nil
}

// LoadWebhookSecret returns the decrypted signing secret for the tenant's
// provider webhook, or "" when none is registered.
func (s *Service) LoadWebhookSecret(ctx context.Context, churchID, provider string) (string, error) {
	gw, err := s.repo.LoadByProvider(churchID, provider)
	if err != nil {
		return "", errors.NewInternalError("failed to load gateway", err)
	}
	if gw == nil || gw.WebhookKey == "" {
		return "", nil
	}

	secret, err := s.cipher.Decrypt(gw.WebhookKey)
	if err != nil {
		return "", errors.NewInternalError("failed to decrypt webhook secret", err)
	}
	return secret, nil
}

// Save configures the tenant's gateway. For the Stripe provider this also
// re-registers the webhook endpoint and ensures a provider-side product
// before the (encrypted) row is written.
func (s *Service) Save(ctx context.Context, churchID string, dto SaveGatewayDTO) (*gatewaydm.Gateway, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	gw := &gatewaydm.Gateway{
		ID:        dto.ID,
		ChurchID:  churchID,
		Provider:  dto.Provider,
		PublicKey: dto.PublicKey,
		PayFees:   dto.PayFees,
	}

	// Updates merge over the stored row: columns the DTO does not carry (fee
	// schedule) and, when the key is not resent, the stored credentials must
	// survive the write.
	if dto.ID != "" {
		existing, err := s.repo.Load(churchID, dto.ID)
		if err != nil {
			return nil, errors.NewInternalError("failed to load gateway", err)
		}
		if existing == nil {
			return nil, errors.NewNotFoundError("Gateway not found", errors.ErrCodeValidationFailed)
		}
		gw.FeeFixed = existing.FeeFixed
		gw.FeePercent = existing.FeePercent
		gw.ACHFeePercent = existing.ACHFeePercent
		gw.ACHFeeMax = existing.ACHFeeMax
		if dto.PrivateKey == "" {
			gw.PrivateKey = existing.PrivateKey
			gw.WebhookKey = existing.WebhookKey
			gw.ProductID = existing.ProductID
		}
	}

	if dto.Provider == gatewaydm.ProviderStripe && dto.PrivateKey != "" {
		if err := s.provider.DeleteWebhooksByChurchID(ctx, dto.PrivateKey, churchID); err != nil {
			s.logger.Error("failed to clear stale webhook endpoints", "church_id", churchID, "error", err)
			return nil, err
		}

		webhookURL := fmt.Sprintf("%s/donate/webhook/stripe?churchId=%s", s.baseURL, churchID)
		endpoint, err := s.provider.CreateWebhookEndpoint(ctx, dto.PrivateKey, webhookURL)
		if err != nil {
			return nil, err
		}

		encryptedWebhookKey, err := s.cipher.Encrypt(endpoint.Secret)
		if err != nil {
			return nil, errors.NewInternalError("failed to encrypt webhook secret", err)
		}
		gw.WebhookKey = encryptedWebhookKey

		productID, err := s.provider.CreateProduct(ctx, dto.PrivateKey, churchID)
		if err != nil {
			return nil, err
		}
		gw.ProductID = productID
	}

	if dto.PrivateKey != "" {
		encryptedPrivateKey, err := s.cipher.Encrypt(dto.PrivateKey)
		if err != nil {
			return nil, errors.NewInternalError("failed to encrypt private key", err)
		}
		gw.PrivateKey = encryptedPrivateKey
	}

	if err := s.repo.Save(gw); err != nil {
		s.logger.Error("failed to save gateway", "church_id", churchID, "error", err)
		return nil, errors.NewInternalError("failed to save gateway", err)
	}

	s.logger.Info("gateway saved", "gateway_id", gw.ID, "church_id", churchID, "provider", gw.Provider)
	return gw, nil
}

// Delete removes the tenant's gateway, revoking provider-side webhook
// registrations first so the row never outlives its endpoints.
func (s *Service) Delete(ctx context.Context, churchID, id string) error {
	gw, err := s.repo.Load(churchID, id)
	if err != nil {
		return errors.NewInternalError("failed to load gateway", err)
	}
	if gw == nil {
		return errors.NewNotFoundError("Gateway not found", errors.ErrCodeValidationFailed)
	}

	if gw.Provider == gatewaydm.ProviderStripe && gw.PrivateKey != "" {
		secret, err := s.cipher.Decrypt(gw.PrivateKey)
		if err != nil {
			return errors.NewInternalError("failed to decrypt gateway credentials", err)
		}
		if err := s.provider.DeleteWebhooksByChurchID(ctx, secret, churchID); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(churchID, id); err != nil {
		return errors.NewInternalError("failed to delete gateway", err)
	}

	s.logger.Info("gateway deleted", "gateway_id", id, "church_id", churchID)
	return nil
}

// List returns the tenant's gateways with key material stripped.
func (s *Service) List(ctx context.Context, churchID string) ([]GatewayDTO, error) {
	gateways, err := s.repo.LoadAll(churchID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load gateways", err)
	}

	result := make([]GatewayDTO, 0, len(gateways))
	for _, gw := range gateways {
		result = append(result, toDTO(gw))
	}
	return result, nil
}

// IsConfigured reports whether the tenant has a gateway with a usable key.
func (s *Service) IsConfigured(ctx context.Context, churchID string) (bool, error) {
	gateways, err := s.repo.LoadAll(churchID)
	if err != nil {
		return false, errors.NewInternalError("failed to load gateways", err)
	}
	for _, gw := range gateways {
		if gw.PrivateKey != "" {
			return true, nil
		}
	}
	return false, nil
}

// ChargeConfig bundles what recurring billing needs from the gateway row:
// the decrypted secret key and the provider-side product gifts bill against.
type ChargeConfig struct {
	SecretKey string
	ProductID string
}

// LoadChargeConfig returns nil when the tenant has no usable gateway.
func (s *Service) LoadChargeConfig(ctx context.Context, churchID string) (*ChargeConfig, error) {
	gateways, err := s.repo.LoadAll(churchID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load gateways", err)
	}
	if len(gateways) == 0 || gateways[0].PrivateKey == "" {
		return nil, nil
	}

	secret, err := s.cipher.Decrypt(gateways[0].PrivateKey)
	if err != nil {
		return nil, errors.NewInternalError("failed to decrypt gateway credentials", err)
	}
	return &ChargeConfig{SecretKey: secret, ProductID: gateways[0].ProductID}, nil
}

// FeeOverrides maps the tenant's gateway fee columns onto the calculator's
// override set. Missing gateway means all defaults.
func (s *Service) FeeOverrides(ctx context.Context, churchID, kind string) (fees.Overrides, error) {
	gateways, err := s.repo.LoadAll(churchID)
	if err != nil {
		return fees.Overrides{}, errors.NewInternalError("failed to load gateways", err)
	}
	if len(gateways) == 0 {
		return fees.Overrides{}, nil
	}

	gw := gateways[0]
	if kind == fees.KindACH {
		return fees.Overrides{PercentFee: gw.ACHFeePercent, MaxFee: gw.ACHFeeMax}, nil
	}
	return fees.Overrides{FixedFee: gw.FeeFixed, PercentFee: gw.FeePercent}, nil
}
