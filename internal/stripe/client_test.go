package stripe_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/giving-api/internal/stripe"
)

func TestStripe(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stripe Suite")
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Form   map[string]string
}

// testServer replays canned JSON per path and records what the client sent.
type testServer struct {
	server    *httptest.Server
	requests  []recordedRequest
	responses map[string]string
	status    int
}

func newTestServer() *testServer {
	ts := &testServer{responses: make(map[string]string), status: http.StatusOK}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form := make(map[string]string)
		for k, v := range r.Form {
			if len(v) > 0 {
				form[k] = v[0]
			}
		}
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Form:   form,
		})

		w.Header().Set("Content-Type", "application/json")
		if ts.status != http.StatusOK {
			w.WriteHeader(ts.status)
			w.Write([]byte(`{"error":{"message":"provider rejected the request"}}`))
			return
		}
		if body, ok := ts.responses[r.Method+" "+r.URL.Path]; ok {
			w.Write([]byte(body))
			return
		}
		w.Write([]byte(`{}`))
	}))
	return ts
}

func (ts *testServer) last() recordedRequest {
	return ts.requests[len(ts.requests)-1]
}

var _ = Describe("Client", func() {
	var (
		server *testServer
		client *stripe.Client
		ctx    context.Context
	)

	secretKey := "sk_test_123"

	BeforeEach(func() {
		server = newTestServer()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = stripe.NewClient(server.server.URL, 5*time.Second, logger)
		ctx = context.Background()
	})

	AfterEach(func() {
		server.server.Close()
	})

	Describe("Donate", func() {
		BeforeEach(func() {
			server.responses["POST /v1/payment_intents"] = `{"id":"ch_1","amount":2500,"status":"succeeded","customer":"cus_1"}`
		})

		It("should convert major units to cents exactly once", func() {
			result, err := client.Donate(ctx, secretKey, stripe.ChargeRequest{
				Amount:          25.00,
				CustomerID:      "cus_1",
				PaymentMethodID: "pm_1",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(Equal("ch_1"))

			req := server.last()
			Expect(req.Form["amount"]).To(Equal("2500"))
			Expect(req.Form["currency"]).To(Equal("usd"))
			Expect(req.Form["payment_method"]).To(Equal("pm_1"))
		})

		It("should round fractional cents instead of truncating", func() {
			_, err := client.Donate(ctx, secretKey, stripe.ChargeRequest{
				Amount:     10.999,
				CustomerID: "cus_1",
				SourceID:   "ba_1",
			})

			Expect(err).ToNot(HaveOccurred())
			req := server.last()
			Expect(req.Form["amount"]).To(Equal("1100"))
			Expect(req.Form["source"]).To(Equal("ba_1"))
		})

		It("should authenticate with the tenant's secret key", func() {
			_, err := client.Donate(ctx, secretKey, stripe.ChargeRequest{
				Amount:     25,
				CustomerID: "cus_1",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(server.last().Auth).To(Equal("Bearer sk_test_123"))
		})

		It("should pass metadata through as form fields", func() {
			_, err := client.Donate(ctx, secretKey, stripe.ChargeRequest{
				Amount:     25,
				CustomerID: "cus_1",
				Metadata:   map[string]string{"churchId": "church-1"},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(server.last().Form["metadata[churchId]"]).To(Equal("church-1"))
		})

		It("should surface provider errors", func() {
			server.status = http.StatusPaymentRequired

			_, err := client.Donate(ctx, secretKey, stripe.ChargeRequest{
				Amount:     25,
				CustomerID: "cus_1",
			})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CreateSubscription", func() {
		BeforeEach(func() {
			server.responses["POST /v1/subscriptions"] = `{"id":"sub_1","status":"active","customer":"cus_1"}`
		})

		It("should default to a monthly plan", func() {
			result, err := client.CreateSubscription(ctx, secretKey, stripe.SubscriptionRequest{
				CustomerID: "cus_1",
				ProductID:  "prod_1",
				Amount:     50,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(Equal("sub_1"))

			req := server.last()
			Expect(req.Form["items[0][price_data][recurring][interval]"]).To(Equal("month"))
			Expect(req.Form["items[0][price_data][recurring][interval_count]"]).To(Equal("1"))
			Expect(req.Form["items[0][price_data][unit_amount]"]).To(Equal("5000"))
		})

		It("should bill against the tenant's product", func() {
			_, err := client.CreateSubscription(ctx, secretKey, stripe.SubscriptionRequest{
				CustomerID: "cus_1",
				ProductID:  "prod_1",
				Amount:     50,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(server.last().Form["items[0][price_data][product]"]).To(Equal("prod_1"))
		})
	})

	Describe("UpdateSubscription", func() {
		It("should route bank references to default_source", func() {
			err := client.UpdateSubscription(ctx, secretKey, "sub_1", "ba_9")

			Expect(err).ToNot(HaveOccurred())
			req := server.last()
			Expect(req.Form["default_source"]).To(Equal("ba_9"))
			Expect(req.Form).ToNot(HaveKey("default_payment_method"))
		})

		It("should route card references to default_payment_method", func() {
			err := client.UpdateSubscription(ctx, secretKey, "sub_1", "pm_9")

			Expect(err).ToNot(HaveOccurred())
			Expect(server.last().Form["default_payment_method"]).To(Equal("pm_9"))
		})
	})

	Describe("CreateWebhookEndpoint", func() {
		It("should subscribe to the event types the service handles", func() {
			server.responses["POST /v1/webhook_endpoints"] = `{"id":"we_1","url":"https://x/donate/webhook/stripe?churchId=church-1","secret":"whsec_1"}`

			endpoint, err := client.CreateWebhookEndpoint(ctx, secretKey, "https://x/donate/webhook/stripe?churchId=church-1")

			Expect(err).ToNot(HaveOccurred())
			Expect(endpoint.Secret).To(Equal("whsec_1"))

			req := server.last()
			Expect(req.Form["url"]).To(Equal("https://x/donate/webhook/stripe?churchId=church-1"))
			Expect(req.Form["enabled_events[0]"]).To(Equal("charge.succeeded"))
			Expect(req.Form["enabled_events[3]"]).To(Equal("invoice.paid"))
		})
	})

	Describe("DeleteWebhooksByChurchID", func() {
		It("should delete only the tenant's endpoints", func() {
			server.responses["GET /v1/webhook_endpoints"] = `{"data":[
				{"id":"we_mine","url":"https://x/donate/webhook/stripe?churchId=church-1"},
				{"id":"we_other","url":"https://x/donate/webhook/stripe?churchId=church-2"}
			]}`

			err := client.DeleteWebhooksByChurchID(ctx, secretKey, "church-1")

			Expect(err).ToNot(HaveOccurred())

			var deleted []string
			for _, req := range server.requests {
				if req.Method == http.MethodDelete {
					deleted = append(deleted, req.Path)
				}
			}
			Expect(deleted).To(Equal([]string{"/v1/webhook_endpoints/we_mine"}))
		})
	})

	Describe("VerifyBank", func() {
		It("should report an unverified account as a result, not an error", func() {
			server.status = http.StatusBadRequest

			result, err := client.VerifyBank(ctx, secretKey, "ba_1", "cus_1", [2]int64{32, 45})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Verified).To(BeFalse())
			Expect(result.Status).To(Equal("failed"))
		})

		It("should report verification success", func() {
			server.responses["POST /v1/customers/cus_1/sources/ba_1/verify"] = `{"id":"ba_1","status":"verified"}`

			result, err := client.VerifyBank(ctx, secretKey, "ba_1", "cus_1", [2]int64{32, 45})

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Verified).To(BeTrue())

			req := server.last()
			Expect(req.Form["amounts[0]"]).To(Equal("32"))
			Expect(req.Form["amounts[1]"]).To(Equal("45"))
		})
	})

	Describe("CreateCheckoutSession", func() {
		It("should open a one-time payment session", func() {
			server.responses["POST /v1/checkout/sessions"] = `{"id":"cs_1"}`

			sessionID, err := client.CreateCheckoutSession(ctx, secretKey, 25, "https://x/ok", "https://x/no")

			Expect(err).ToNot(HaveOccurred())
			Expect(sessionID).To(Equal("cs_1"))

			req := server.last()
			Expect(req.Form["mode"]).To(Equal("payment"))
			Expect(req.Form["line_items[0][price_data][unit_amount]"]).To(Equal("2500"))
			Expect(req.Form["success_url"]).To(Equal("https://x/ok"))
		})
	})
})
