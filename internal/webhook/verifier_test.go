package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/internal/webhook"
)

func TestWebhook(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Webhook Suite")
}

const testSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

var _ = Describe("Verifier", func() {
	var verifier *webhook.Verifier
	payload := []byte(`{"id":"evt_123","type":"charge.succeeded","created":1700000000,"data":{"object":{"id":"ch_1","amount":2500}}}`)

	BeforeEach(func() {
		verifier = webhook.NewVerifier(5 * time.Minute)
	})

	It("should accept a correctly signed payload", func() {
		header := signPayload(payload, testSecret, time.Now())

		event, err := verifier.Verify(payload, header, testSecret)

		Expect(err).ToNot(HaveOccurred())
		Expect(event.ID).To(Equal("evt_123"))
		Expect(event.Type).To(Equal("charge.succeeded"))
	})

	It("should decode the data object on demand", func() {
		header := signPayload(payload, testSecret, time.Now())
		event, err := verifier.Verify(payload, header, testSecret)
		Expect(err).ToNot(HaveOccurred())

		var charge struct {
			ID     string `json:"id"`
			Amount int64  `json:"amount"`
		}
		Expect(event.DecodeObject(&charge)).To(Succeed())
		Expect(charge.ID).To(Equal("ch_1"))
		Expect(charge.Amount).To(Equal(int64(2500)))
	})

	It("should reject a missing signature header", func() {
		_, err := verifier.Verify(payload, "", testSecret)

		Expect(err).To(Equal(apperrors.ErrMissingSignature))
	})

	It("should reject a signature computed with the wrong secret", func() {
		header := signPayload(payload, "whsec_other", time.Now())

		_, err := verifier.Verify(payload, header, testSecret)

		Expect(err).To(Equal(apperrors.ErrSignatureInvalid))
	})

	It("should reject a tampered payload", func() {
		header := signPayload(payload, testSecret, time.Now())
		tampered := []byte(`{"id":"evt_123","type":"charge.succeeded","created":1700000000,"data":{"object":{"id":"ch_1","amount":9999999}}}`)

		_, err := verifier.Verify(tampered, header, testSecret)

		Expect(err).To(Equal(apperrors.ErrSignatureInvalid))
	})

	It("should reject a timestamp outside the tolerance window", func() {
		header := signPayload(payload, testSecret, time.Now().Add(-10*time.Minute))

		_, err := verifier.Verify(payload, header, testSecret)

		Expect(err).To(Equal(apperrors.ErrSignatureInvalid))
	})

	It("should reject a garbled signature header", func() {
		_, err := verifier.Verify(payload, "t=notanumber,v1=zzzz", testSecret)

		Expect(err).To(Equal(apperrors.ErrSignatureInvalid))
	})

	It("should accept any valid signature among multiple v1 entries", func() {
		good := signPayload(payload, testSecret, time.Now())
		header := good + ",v1=deadbeef"

		event, err := verifier.Verify(payload, header, testSecret)

		Expect(err).ToNot(HaveOccurred())
		Expect(event.ID).To(Equal("evt_123"))
	})
})
