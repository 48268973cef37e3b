package paymentmethod_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/giving-api/internal"
	customerdm "github.com/frahmantamala/giving-api/internal/core/datamodel/customer"
	"github.com/frahmantamala/giving-api/internal/paymentmethod"
	"github.com/frahmantamala/giving-api/internal/stripe"
)

func TestPaymentMethod(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentMethod Suite")
}

type mockCustomerRepo struct {
	customers map[string]*customerdm.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[string]*customerdm.Customer)}
}

func (m *mockCustomerRepo) Save(c *customerdm.Customer) error {
	m.customers[c.ID] = c
	return nil
}

func (m *mockCustomerRepo) Load(churchID, id string) (*customerdm.Customer, error) {
	if c, ok := m.customers[id]; ok && c.ChurchID == churchID {
		return c, nil
	}
	return nil, nil
}

func (m *mockCustomerRepo) LoadByPerson(churchID, personID string) (*customerdm.Customer, error) {
	for _, c := range m.customers {
		if c.ChurchID == churchID && c.PersonID == personID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCustomerRepo) Delete(churchID, id string) error {
	delete(m.customers, id)
	return nil
}

type mockPaymentMethodRepo struct {
	methods map[string]*customerdm.PaymentMethod
}

func newMockPaymentMethodRepo() *mockPaymentMethodRepo {
	return &mockPaymentMethodRepo{methods: make(map[string]*customerdm.PaymentMethod)}
}

func (m *mockPaymentMethodRepo) Save(pm *customerdm.PaymentMethod) error {
	m.methods[pm.ID] = pm
	return nil
}

func (m *mockPaymentMethodRepo) Load(churchID, id string) (*customerdm.PaymentMethod, error) {
	if pm, ok := m.methods[id]; ok && pm.ChurchID == churchID {
		return pm, nil
	}
	return nil, nil
}

func (m *mockPaymentMethodRepo) LoadByPerson(churchID, personID string) ([]*customerdm.PaymentMethod, error) {
	var result []*customerdm.PaymentMethod
	for _, pm := range m.methods {
		if pm.ChurchID == churchID && pm.PersonID == personID {
			result = append(result, pm)
		}
	}
	return result, nil
}

func (m *mockPaymentMethodRepo) Delete(churchID, id string) error {
	delete(m.methods, id)
	return nil
}

type mockPMGateway struct {
	privateKey string
}

func (m *mockPMGateway) LoadPrivateKey(ctx context.Context, churchID string) (string, error) {
	return m.privateKey, nil
}

type mockPMProvider struct {
	customersCreated int
	attached         []string
	detached         []string
	banksCreated     []string
	banksDeleted     []string
	cardsUpdated     []string
	banksUpdated     []string
	verifyResult     *stripe.BankVerificationResult
}

func (m *mockPMProvider) CreateCustomer(ctx context.Context, secretKey, email, name string) (string, error) {
	m.customersCreated++
	return fmt.Sprintf("cus_%d", m.customersCreated), nil
}

func (m *mockPMProvider) AttachPaymentMethod(ctx context.Context, secretKey, paymentMethodID, customerID string) (*stripe.PaymentMethod, error) {
	m.attached = append(m.attached, paymentMethodID+":"+customerID)
	return &stripe.PaymentMethod{ID: paymentMethodID, Type: "card", Customer: customerID}, nil
}

func (m *mockPMProvider) DetachPaymentMethod(ctx context.Context, secretKey, paymentMethodID string) error {
	m.detached = append(m.detached, paymentMethodID)
	return nil
}

func (m *mockPMProvider) UpdateCard(ctx context.Context, secretKey, paymentMethodID string, card stripe.CardUpdate) (*stripe.PaymentMethod, error) {
	m.cardsUpdated = append(m.cardsUpdated, paymentMethodID)
	return &stripe.PaymentMethod{ID: paymentMethodID}, nil
}

func (m *mockPMProvider) CreateBankAccount(ctx context.Context, secretKey, customerID, source string) (*stripe.BankAccount, error) {
	m.banksCreated = append(m.banksCreated, source)
	return &stripe.BankAccount{ID: "ba_1", Status: "new"}, nil
}

func (m *mockPMProvider) UpdateBank(ctx context.Context, secretKey, bankAccountID, customerID string, bank stripe.BankUpdate) (*stripe.BankAccount, error) {
	m.banksUpdated = append(m.banksUpdated, bankAccountID)
	return &stripe.BankAccount{ID: bankAccountID}, nil
}

func (m *mockPMProvider) VerifyBank(ctx context.Context, secretKey, bankAccountID, customerID string, amounts [2]int64) (*stripe.BankVerificationResult, error) {
	if m.verifyResult != nil {
		return m.verifyResult, nil
	}
	return &stripe.BankVerificationResult{Verified: true, Status: "verified"}, nil
}

func (m *mockPMProvider) DeleteBankAccount(ctx context.Context, secretKey, customerID, bankAccountID string) error {
	m.banksDeleted = append(m.banksDeleted, bankAccountID)
	return nil
}

func (m *mockPMProvider) GetCustomerPaymentMethods(ctx context.Context, secretKey, customerID string) ([]stripe.PaymentMethod, error) {
	return nil, nil
}

var _ = Describe("PaymentMethod Service", func() {
	var (
		service   *paymentmethod.Service
		repo      *mockPaymentMethodRepo
		customers *mockCustomerRepo
		gateways  *mockPMGateway
		provider  *mockPMProvider
		ctx       context.Context
	)

	churchID := "church-1"

	BeforeEach(func() {
		repo = newMockPaymentMethodRepo()
		customers = newMockCustomerRepo()
		gateways = &mockPMGateway{privateKey: "sk_test_123"}
		provider = &mockPMProvider{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = paymentmethod.NewService(repo, customers, gateways, provider, logger)
		ctx = context.Background()
	})

	Describe("AddCard", func() {
		It("should create the provider customer lazily on first use", func() {
			pm, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{
				PersonID:        "person-1",
				PaymentMethodID: "pm_1",
				Email:           "donor@example.com",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(provider.customersCreated).To(Equal(1))
			Expect(provider.attached).To(Equal([]string{"pm_1:cus_1"}))
			Expect(pm.CustomerID).To(Equal("cus_1"))

			c, _ := customers.LoadByPerson(churchID, "person-1")
			Expect(c).ToNot(BeNil())
		})

		It("should reuse the existing customer for later instruments", func() {
			_, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-1", PaymentMethodID: "pm_1"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-1", PaymentMethodID: "pm_2"})

			Expect(err).ToNot(HaveOccurred())
			Expect(provider.customersCreated).To(Equal(1))
		})

		It("should refuse when the tenant has no gateway", func() {
			gateways.privateKey = ""

			_, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-1", PaymentMethodID: "pm_1"})

			Expect(err).To(Equal(apperrors.ErrGatewayNotConfigured))
			Expect(provider.customersCreated).To(BeZero())
		})

		It("should reject a request without a person", func() {
			_, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PaymentMethodID: "pm_1"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("AddBank", func() {
		It("should attach the account as a source", func() {
			pm, err := service.AddBank(ctx, churchID, paymentmethod.AddBankDTO{
				PersonID: "person-1",
				Source:   "btok_1",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(provider.banksCreated).To(Equal([]string{"btok_1"}))
			Expect(pm.ID).To(Equal("ba_1"))
		})
	})

	Describe("VerifyBank", func() {
		BeforeEach(func() {
			_, err := service.AddBank(ctx, churchID, paymentmethod.AddBankDTO{PersonID: "person-1", Source: "btok_1"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should return the provider's verdict", func() {
			result, err := service.VerifyBank(ctx, churchID, "ba_1", paymentmethod.VerifyBankDTO{Amounts: [2]int64{32, 45}})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Verified).To(BeTrue())
		})

		It("should pass a failed check through as a result", func() {
			provider.verifyResult = &stripe.BankVerificationResult{Verified: false, Status: "failed", Message: "amounts do not match"}

			result, err := service.VerifyBank(ctx, churchID, "ba_1", paymentmethod.VerifyBankDTO{Amounts: [2]int64{1, 2}})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Verified).To(BeFalse())
		})

		It("should reject missing amounts", func() {
			_, err := service.VerifyBank(ctx, churchID, "ba_1", paymentmethod.VerifyBankDTO{})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Detach", func() {
		It("should detach cards as payment methods", func() {
			_, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-1", PaymentMethodID: "pm_1"})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Detach(ctx, churchID, "pm_1")).To(Succeed())

			Expect(provider.detached).To(Equal([]string{"pm_1"}))
			Expect(provider.banksDeleted).To(BeEmpty())
			pm, _ := repo.Load(churchID, "pm_1")
			Expect(pm).To(BeNil())
		})

		It("should delete bank accounts as sources", func() {
			_, err := service.AddBank(ctx, churchID, paymentmethod.AddBankDTO{PersonID: "person-1", Source: "btok_1"})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.Detach(ctx, churchID, "ba_1")).To(Succeed())

			Expect(provider.banksDeleted).To(Equal([]string{"ba_1"}))
			Expect(provider.detached).To(BeEmpty())
		})

		It("should fail for an unknown instrument", func() {
			err := service.Detach(ctx, churchID, "pm_missing")

			Expect(err).To(HaveOccurred())
			Expect(provider.detached).To(BeEmpty())
		})
	})

	Describe("LookupPerson", func() {
		It("should map a provider customer back to its person", func() {
			_, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-1", PaymentMethodID: "pm_1"})
			Expect(err).ToNot(HaveOccurred())

			personID, err := service.LookupPerson(ctx, churchID, "cus_1")

			Expect(err).ToNot(HaveOccurred())
			Expect(personID).To(Equal("person-1"))
		})

		It("should fail for an unknown customer", func() {
			_, err := service.LookupPerson(ctx, churchID, "cus_unknown")

			Expect(err).To(Equal(apperrors.ErrCustomerNotFound))
		})
	})

	Describe("LoadByPerson", func() {
		It("should list only the person's instruments", func() {
			_, err := service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-1", PaymentMethodID: "pm_1"})
			Expect(err).ToNot(HaveOccurred())
			_, err = service.AddCard(ctx, churchID, paymentmethod.AddCardDTO{PersonID: "person-2", PaymentMethodID: "pm_2"})
			Expect(err).ToNot(HaveOccurred())

			methods, err := service.LoadByPerson(ctx, churchID, "person-1")

			Expect(err).ToNot(HaveOccurred())
			Expect(methods).To(HaveLen(1))
			Expect(methods[0].ID).To(Equal("pm_1"))
		})
	})
})
