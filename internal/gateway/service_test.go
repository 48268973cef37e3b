package gateway_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gatewaydm "github.com/frahmantamala/giving-api/internal/core/datamodel/gateway"
	"github.com/frahmantamala/giving-api/internal/fees"
	"github.com/frahmantamala/giving-api/internal/gateway"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

func TestGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Gateway Suite")
}

type mockGatewayRepo struct {
	gateways  []*gatewaydm.Gateway
	saveCount int
}

func (m *mockGatewayRepo) Save(gw *gatewaydm.Gateway) error {
	m.saveCount++
	if gw.ID == "" {
		gw.ID = fmt.Sprintf("gw-%d", m.saveCount)
	}
	// creating replaces any existing rows for the tenant, matching the
	// delete-siblings behavior of the real repository
	kept := m.gateways[:0]
	for _, existing := range m.gateways {
		if existing.ChurchID != gw.ChurchID {
			kept = append(kept, existing)
		}
	}
	m.gateways = append(kept, gw)
	return nil
}

func (m *mockGatewayRepo) Load(churchID, id string) (*gatewaydm.Gateway, error) {
	for _, gw := range m.gateways {
		if gw.ChurchID == churchID && gw.ID == id {
			return gw, nil
		}
	}
	return nil, nil
}

func (m *mockGatewayRepo) LoadAll(churchID string) ([]*gatewaydm.Gateway, error) {
	var result []*gatewaydm.Gateway
	for _, gw := range m.gateways {
		if gw.ChurchID == churchID {
			result = append(result, gw)
		}
	}
	return result, nil
}

func (m *mockGatewayRepo) LoadByProvider(churchID, provider string) (*gatewaydm.Gateway, error) {
	for _, gw := range m.gateways {
		if gw.ChurchID == churchID && gw.Provider == provider {
			return gw, nil
		}
	}
	return nil, nil
}

func (m *mockGatewayRepo) Delete(churchID, id string) error {
	kept := m.gateways[:0]
	for _, gw := range m.gateways {
		if !(gw.ChurchID == churchID && gw.ID == id) {
			kept = append(kept, gw)
		}
	}
	m.gateways = kept
	return nil
}

type mockGatewayProvider struct {
	endpointsCreated []string
	webhooksRevoked  []string
	productsCreated  []string
}

func (m *mockGatewayProvider) CreateWebhookEndpoint(ctx context.Context, secretKey, endpointURL string) (*stripe.WebhookEndpoint, error) {
	m.endpointsCreated = append(m.endpointsCreated, endpointURL)
	return &stripe.WebhookEndpoint{ID: "we_1", URL: endpointURL, Secret: "whsec_new"}, nil
}

func (m *mockGatewayProvider) DeleteWebhooksByChurchID(ctx context.Context, secretKey, churchID string) error {
	m.webhooksRevoked = append(m.webhooksRevoked, churchID)
	return nil
}

func (m *mockGatewayProvider) CreateProduct(ctx context.Context, secretKey, name string) (string, error) {
	m.productsCreated = append(m.productsCreated, name)
	return "prod_1", nil
}

// fakeCipher prefixes instead of encrypting so tests can assert what was
// stored without real key material.
type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeCipher) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", fmt.Errorf("not a ciphertext: %q", ciphertext)
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

var _ = Describe("Gateway Service", func() {
	var (
		service  *gateway.Service
		repo     *mockGatewayRepo
		provider *mockGatewayProvider
		ctx      context.Context
	)

	churchID := "church-1"

	saveStripe := func() *gatewaydm.Gateway {
		gw, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
			Provider:   gatewaydm.ProviderStripe,
			PublicKey:  "pk_test_123",
			PrivateKey: "sk_test_123",
		})
		Expect(err).ToNot(HaveOccurred())
		return gw
	}

	BeforeEach(func() {
		repo = &mockGatewayRepo{}
		provider = &mockGatewayProvider{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = gateway.NewService(repo, provider, fakeCipher{}, "https://giving.example.com", logger)
		ctx = context.Background()
	})

	Describe("Save", func() {
		It("should register a webhook endpoint scoped to the tenant", func() {
			saveStripe()

			Expect(provider.webhooksRevoked).To(Equal([]string{churchID}))
			Expect(provider.endpointsCreated).To(HaveLen(1))
			Expect(provider.endpointsCreated[0]).To(Equal("https://giving.example.com/donate/webhook/stripe?churchId=church-1"))
		})

		It("should store the keys encrypted", func() {
			gw := saveStripe()

			Expect(gw.PrivateKey).To(Equal("enc:sk_test_123"))
			Expect(gw.WebhookKey).To(Equal("enc:whsec_new"))
			Expect(gw.PublicKey).To(Equal("pk_test_123"))
		})

		It("should ensure a provider-side product", func() {
			gw := saveStripe()

			Expect(provider.productsCreated).To(Equal([]string{churchID}))
			Expect(gw.ProductID).To(Equal("prod_1"))
		})

		It("should skip provider calls when no private key is given", func() {
			_, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
				Provider:  gatewaydm.ProviderStripe,
				PublicKey: "pk_test_123",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(provider.endpointsCreated).To(BeEmpty())
			Expect(provider.productsCreated).To(BeEmpty())
		})

		It("should keep stored credentials on a key-less update", func() {
			gw := saveStripe()
			provider.endpointsCreated = nil
			provider.productsCreated = nil
			provider.webhooksRevoked = nil

			updated, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
				ID:        gw.ID,
				Provider:  gatewaydm.ProviderStripe,
				PublicKey: "pk_test_456",
				PayFees:   true,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.PrivateKey).To(Equal("enc:sk_test_123"))
			Expect(updated.WebhookKey).To(Equal("enc:whsec_new"))
			Expect(updated.ProductID).To(Equal("prod_1"))
			Expect(updated.PublicKey).To(Equal("pk_test_456"))
			Expect(provider.endpointsCreated).To(BeEmpty())
			Expect(provider.webhooksRevoked).To(BeEmpty())

			secret, err := service.LoadPrivateKey(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(secret).To(Equal("sk_test_123"))

			webhookSecret, err := service.LoadWebhookSecret(ctx, churchID, gatewaydm.ProviderStripe)
			Expect(err).ToNot(HaveOccurred())
			Expect(webhookSecret).To(Equal("whsec_new"))
		})

		It("should keep the tenant's fee schedule across updates", func() {
			gw := saveStripe()
			fixed := 0.25
			gw.FeeFixed = &fixed

			_, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
				ID:         gw.ID,
				Provider:   gatewaydm.ProviderStripe,
				PublicKey:  "pk_test_123",
				PrivateKey: "sk_test_456",
			})
			Expect(err).ToNot(HaveOccurred())

			overrides, err := service.FeeOverrides(ctx, churchID, fees.KindCard)
			Expect(err).ToNot(HaveOccurred())
			Expect(overrides.FixedFee).To(Equal(&fixed))
		})

		It("should fail updating an unknown gateway", func() {
			_, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
				ID:        "missing",
				Provider:  gatewaydm.ProviderStripe,
				PublicKey: "pk_test_123",
			})

			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown provider", func() {
			_, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
				Provider:  "PayPal",
				PublicKey: "pk_test_123",
			})

			Expect(err).To(HaveOccurred())
			Expect(repo.saveCount).To(BeZero())
		})
	})

	Describe("LoadPrivateKey", func() {
		It("should return the decrypted secret", func() {
			saveStripe()

			secret, err := service.LoadPrivateKey(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(secret).To(Equal("sk_test_123"))
		})

		It("should return empty for an unconfigured tenant", func() {
			secret, err := service.LoadPrivateKey(ctx, "church-unconfigured")

			Expect(err).ToNot(HaveOccurred())
			Expect(secret).To(BeEmpty())
		})

		It("should return empty when the gateway row has no key", func() {
			_, err := service.Save(ctx, churchID, gateway.SaveGatewayDTO{
				Provider:  gatewaydm.ProviderStripe,
				PublicKey: "pk_test_123",
			})
			Expect(err).ToNot(HaveOccurred())

			secret, err := service.LoadPrivateKey(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(secret).To(BeEmpty())
		})
	})

	Describe("LoadWebhookSecret", func() {
		It("should return the decrypted signing secret", func() {
			saveStripe()

			secret, err := service.LoadWebhookSecret(ctx, churchID, gatewaydm.ProviderStripe)

			Expect(err).ToNot(HaveOccurred())
			Expect(secret).To(Equal("whsec_new"))
		})

		It("should return empty for an unknown provider", func() {
			saveStripe()

			secret, err := service.LoadWebhookSecret(ctx, churchID, "PayPal")

			Expect(err).ToNot(HaveOccurred())
			Expect(secret).To(BeEmpty())
		})
	})

	Describe("LoadChargeConfig", func() {
		It("should bundle the secret key and product id", func() {
			saveStripe()

			cfg, err := service.LoadChargeConfig(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).ToNot(BeNil())
			Expect(cfg.SecretKey).To(Equal("sk_test_123"))
			Expect(cfg.ProductID).To(Equal("prod_1"))
		})

		It("should return nil for an unconfigured tenant", func() {
			cfg, err := service.LoadChargeConfig(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).To(BeNil())
		})
	})

	Describe("Delete", func() {
		It("should revoke provider webhooks before removing the row", func() {
			gw := saveStripe()
			provider.webhooksRevoked = nil

			Expect(service.Delete(ctx, churchID, gw.ID)).To(Succeed())

			Expect(provider.webhooksRevoked).To(Equal([]string{churchID}))
			loaded, _ := repo.Load(churchID, gw.ID)
			Expect(loaded).To(BeNil())
		})

		It("should fail for an unknown gateway", func() {
			err := service.Delete(ctx, churchID, "missing")

			Expect(err).To(HaveOccurred())
			Expect(provider.webhooksRevoked).To(BeEmpty())
		})
	})

	Describe("List", func() {
		It("should strip key material from the response", func() {
			saveStripe()

			gateways, err := service.List(ctx, churchID)

			Expect(err).ToNot(HaveOccurred())
			Expect(gateways).To(HaveLen(1))
			Expect(gateways[0].PublicKey).To(Equal("pk_test_123"))
			Expect(gateways[0].ProductID).To(Equal("prod_1"))
		})
	})

	Describe("IsConfigured", func() {
		It("should report true only when a usable key exists", func() {
			configured, err := service.IsConfigured(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(configured).To(BeFalse())

			saveStripe()

			configured, err = service.IsConfigured(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(configured).To(BeTrue())
		})
	})

	Describe("FeeOverrides", func() {
		It("should default everything when no gateway exists", func() {
			overrides, err := service.FeeOverrides(ctx, churchID, fees.KindCard)

			Expect(err).ToNot(HaveOccurred())
			Expect(overrides).To(Equal(fees.Overrides{}))
		})

		It("should map card columns onto card overrides", func() {
			gw := saveStripe()
			fixed, percent := 0.25, 0.025
			gw.FeeFixed = &fixed
			gw.FeePercent = &percent

			overrides, err := service.FeeOverrides(ctx, churchID, fees.KindCard)

			Expect(err).ToNot(HaveOccurred())
			Expect(overrides.FixedFee).To(Equal(&fixed))
			Expect(overrides.PercentFee).To(Equal(&percent))
			Expect(overrides.MaxFee).To(BeNil())
		})

		It("should map ach columns onto ach overrides", func() {
			gw := saveStripe()
			percent, max := 0.005, 3.00
			gw.ACHFeePercent = &percent
			gw.ACHFeeMax = &max

			overrides, err := service.FeeOverrides(ctx, churchID, fees.KindACH)

			Expect(err).ToNot(HaveOccurred())
			Expect(overrides.PercentFee).To(Equal(&percent))
			Expect(overrides.MaxFee).To(Equal(&max))
			Expect(overrides.FixedFee).To(BeNil())
		})
	})
})
