package webhook_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/giving-api/internal"
	donationdm "github.com/frahmantamala/giving-api/internal/core/datamodel/donation"
	eventlogdm "github.com/frahmantamala/giving-api/internal/core/datamodel/eventlog"
	"github.com/frahmantamala/giving-api/internal/core/events"
	"github.com/frahmantamala/giving-api/internal/donation"
	"github.com/frahmantamala/giving-api/internal/webhook"
)

type mockEventLogRepo struct {
	logs      map[string]*eventlogdm.EventLog
	saveError error
}

func newMockEventLogRepo() *mockEventLogRepo {
	return &mockEventLogRepo{logs: make(map[string]*eventlogdm.EventLog)}
}

func (m *mockEventLogRepo) Save(log *eventlogdm.EventLog) error {
	if m.saveError != nil {
		return m.saveError
	}
	copied := *log
	m.logs[log.ID] = &copied
	return nil
}

func (m *mockEventLogRepo) Load(id string) (*eventlogdm.EventLog, error) {
	if log, ok := m.logs[id]; ok {
		return log, nil
	}
	return nil, nil
}

func (m *mockEventLogRepo) LoadByChurch(churchID string) ([]*eventlogdm.EventLog, error) {
	var result []*eventlogdm.EventLog
	for _, log := range m.logs {
		if log.ChurchID == churchID {
			result = append(result, log)
		}
	}
	return result, nil
}

func (m *mockEventLogRepo) LoadUnresolvedFailures(churchID string) ([]*eventlogdm.EventLog, error) {
	var result []*eventlogdm.EventLog
	for _, log := range m.logs {
		if log.ChurchID == churchID && log.Status == eventlogdm.StatusFailed && !log.Resolved {
			result = append(result, log)
		}
	}
	return result, nil
}

func (m *mockEventLogRepo) Resolve(churchID, id string) error {
	if log, ok := m.logs[id]; ok && log.ChurchID == churchID {
		log.Resolved = true
	}
	return nil
}

type mockWebhookGateway struct {
	secrets map[string]string
}

func (m *mockWebhookGateway) LoadWebhookSecret(ctx context.Context, churchID, provider string) (string, error) {
	return m.secrets[churchID], nil
}

type mockRecorder struct {
	recorded    []donation.RecordDonationDTO
	recordError error
}

func (m *mockRecorder) Record(ctx context.Context, churchID string, dto donation.RecordDonationDTO) (*donationdm.Donation, error) {
	if m.recordError != nil {
		return nil, m.recordError
	}
	m.recorded = append(m.recorded, dto)
	return &donationdm.Donation{ID: "don_1", ChurchID: churchID, Amount: dto.Amount}, nil
}

type mockSubscriptionSync struct {
	allocations []donation.FundAllocationDTO
	canceled    []string
}

func (m *mockSubscriptionSync) ResolveAllocationsForCharge(ctx context.Context, churchID, subscriptionID string, amount float64) ([]donation.FundAllocationDTO, error) {
	return m.allocations, nil
}

func (m *mockSubscriptionSync) CancelLocal(ctx context.Context, churchID, subscriptionID string) error {
	m.canceled = append(m.canceled, subscriptionID)
	return nil
}

type mockCustomerLookup struct {
	people map[string]string
}

func (m *mockCustomerLookup) LookupPerson(ctx context.Context, churchID, customerID string) (string, error) {
	if personID, ok := m.people[customerID]; ok {
		return personID, nil
	}
	return "", apperrors.ErrCustomerNotFound
}

var _ = Describe("Webhook Service", func() {
	var (
		service   *webhook.Service
		eventLogs *mockEventLogRepo
		gateways  *mockWebhookGateway
		recorder  *mockRecorder
		subs      *mockSubscriptionSync
		customers *mockCustomerLookup
		ctx       context.Context
	)

	churchID := "church-1"

	sign := func(payload []byte) string {
		return signPayload(payload, testSecret, time.Now())
	}

	BeforeEach(func() {
		eventLogs = newMockEventLogRepo()
		gateways = &mockWebhookGateway{secrets: map[string]string{churchID: testSecret}}
		recorder = &mockRecorder{}
		subs = &mockSubscriptionSync{}
		customers = &mockCustomerLookup{people: map[string]string{"cus_1": "person-1"}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		verifier := webhook.NewVerifier(5 * time.Minute)
		service = webhook.NewService(verifier, eventLogs, gateways, recorder, subs, customers, bus, logger)
		ctx = context.Background()
	})

	Describe("charge.succeeded", func() {
		payload := []byte(`{"id":"evt_charge_1","type":"charge.succeeded","created":1700000000,"data":{"object":{"id":"ch_1","customer":"cus_1","amount":2500,"metadata":{"funds":"[{\"id\":\"fund-1\",\"amount\":25}]"}}}}`)

		It("should record a donation in major units", func() {
			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded).To(HaveLen(1))
			Expect(recorder.recorded[0].Amount).To(Equal(25.00))
			Expect(recorder.recorded[0].Funds).To(HaveLen(1))
			Expect(recorder.recorded[0].Funds[0].FundID).To(Equal("fund-1"))
			Expect(recorder.recorded[0].MethodDetails).To(Equal("ch_1"))
		})

		It("should resolve the person through the customer mapping", func() {
			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded[0].PersonID).ToNot(BeNil())
			Expect(*recorder.recorded[0].PersonID).To(Equal("person-1"))
		})

		It("should write the event log before recording", func() {
			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			log, _ := eventLogs.Load("evt_charge_1")
			Expect(log).ToNot(BeNil())
			Expect(log.Status).To(Equal(eventlogdm.StatusSuccess))
			Expect(log.EventType).To(Equal("charge.succeeded"))
		})

		It("should record exactly one donation across duplicate deliveries", func() {
			header := sign(payload)

			Expect(service.HandleEvent(ctx, "stripe", churchID, payload, header)).To(Succeed())
			Expect(service.HandleEvent(ctx, "stripe", churchID, payload, header)).To(Succeed())
			Expect(service.HandleEvent(ctx, "stripe", churchID, payload, header)).To(Succeed())

			Expect(recorder.recorded).To(HaveLen(1))
		})

		It("should skip recurring charges carried by invoices", func() {
			recurring := []byte(`{"id":"evt_charge_2","type":"charge.succeeded","created":1700000000,"data":{"object":{"id":"ch_2","customer":"cus_1","amount":2500,"metadata":{"invoiceId":"in_1"}}}}`)

			err := service.HandleEvent(ctx, "stripe", churchID, recurring, sign(recurring))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded).To(BeEmpty())
		})

		It("should skip charges the provider ties to an invoice without metadata", func() {
			recurring := []byte(`{"id":"evt_charge_3","type":"charge.succeeded","created":1700000000,"data":{"object":{"id":"ch_3","customer":"cus_1","invoice":"in_2","amount":2500}}}`)

			err := service.HandleEvent(ctx, "stripe", churchID, recurring, sign(recurring))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded).To(BeEmpty())
		})

		It("should flag the event log when recording fails", func() {
			recorder.recordError = errors.New("ledger unavailable")

			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).To(HaveOccurred())

			log, _ := eventLogs.Load("evt_charge_1")
			Expect(log).ToNot(BeNil())
			Expect(log.Status).To(Equal(eventlogdm.StatusFailed))
			Expect(log.Message).To(ContainSubstring("ledger unavailable"))

			failures, err := service.Failures(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(failures).To(HaveLen(1))
		})
	})

	Describe("invoice.paid", func() {
		payload := []byte(`{"id":"evt_inv_1","type":"invoice.paid","created":1700000000,"data":{"object":{"id":"in_1","customer":"cus_1","subscription":"sub_1","amount_paid":5000}}}`)

		It("should record with the subscription's allocation template", func() {
			subs.allocations = []donation.FundAllocationDTO{{FundID: "fund-2", Amount: 50}}

			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded).To(HaveLen(1))
			Expect(recorder.recorded[0].Amount).To(Equal(50.00))
			Expect(recorder.recorded[0].Funds).To(Equal(subs.allocations))
		})
	})

	Describe("customer.subscription.deleted", func() {
		payload := []byte(`{"id":"evt_sub_1","type":"customer.subscription.deleted","created":1700000000,"data":{"object":{"id":"sub_1","customer":"cus_1"}}}`)

		It("should cancel the local mirror", func() {
			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			Expect(subs.canceled).To(Equal([]string{"sub_1"}))
		})
	})

	Describe("charge.failed", func() {
		payload := []byte(`{"id":"evt_fail_1","type":"charge.failed","created":1700000000,"data":{"object":{"id":"ch_9","customer":"cus_1","amount":2500,"failure_message":"card declined"}}}`)

		It("should log the failure without recording a donation", func() {
			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded).To(BeEmpty())

			log, _ := eventLogs.Load("evt_fail_1")
			Expect(log).ToNot(BeNil())
			Expect(log.Status).To(Equal(eventlogdm.StatusFailed))
			Expect(log.Message).To(Equal("card declined"))
		})

		It("should surface unresolved failures and allow resolving them", func() {
			Expect(service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))).To(Succeed())

			failures, err := service.Failures(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(failures).To(HaveLen(1))

			Expect(service.Resolve(ctx, churchID, "evt_fail_1")).To(Succeed())

			failures, err = service.Failures(ctx, churchID)
			Expect(err).ToNot(HaveOccurred())
			Expect(failures).To(BeEmpty())
		})
	})

	Describe("tenant without a gateway", func() {
		It("should fail closed before touching the payload", func() {
			payload := []byte(`{"id":"evt_x","type":"charge.succeeded","created":1700000000,"data":{"object":{}}}`)

			err := service.HandleEvent(ctx, "stripe", "church-unconfigured", payload, sign(payload))

			Expect(err).To(Equal(apperrors.ErrGatewayNotConfigured))
			Expect(recorder.recorded).To(BeEmpty())
			log, _ := eventLogs.Load("evt_x")
			Expect(log).To(BeNil())
		})
	})

	Describe("unhandled event types", func() {
		It("should log and acknowledge without side effects", func() {
			payload := []byte(`{"id":"evt_other","type":"payout.created","created":1700000000,"data":{"object":{}}}`)

			err := service.HandleEvent(ctx, "stripe", churchID, payload, sign(payload))

			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.recorded).To(BeEmpty())
			log, _ := eventLogs.Load("evt_other")
			Expect(log).ToNot(BeNil())
		})
	})
})
