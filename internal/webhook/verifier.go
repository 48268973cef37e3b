package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/giving-api/internal"
)

// VerifiedEvent is a provider event whose signature has been checked. The
// payload stays opaque until a consumer decodes the object it cares about.
type VerifiedEvent struct {
	ID      string
	Type    string
	Created time.Time
	object  json.RawMessage
	payload []byte
}

// DecodeObject unmarshals the event's data.object into v.
func (e *VerifiedEvent) DecodeObject(v interface{}) error {
	if len(e.object) == 0 {
		return fmt.Errorf("event %s has no data object", e.ID)
	}
	return json.Unmarshal(e.object, v)
}

// Payload returns the exact bytes the signature was computed over.
func (e *VerifiedEvent) Payload() []byte {
	return e.payload
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
	Created int64 `json:"created"`
}

// Verifier checks provider webhook signatures. Stripe signs the raw request
// body as "<t>.<body>" with HMAC-SHA256 and sends
// "t=<unix>,v1=<hex>[,v1=<hex>...]" in the Stripe-Signature header.
type Verifier struct {
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &Verifier{tolerance: tolerance, now: time.Now}
}

// Verify checks the signature header against the raw payload bytes and
// returns the decoded event. The payload must be the unmodified request body;
// any re-serialization breaks the signature.
func (v *Verifier) Verify(payload []byte, sigHeader, secret string) (*VerifiedEvent, error) {
	if sigHeader == "" {
		return nil, apperrors.ErrMissingSignature
	}

	timestamp, signatures := parseSignatureHeader(sigHeader)
	if timestamp == 0 || len(signatures) == 0 {
		return nil, apperrors.ErrSignatureInvalid
	}

	signedAt := time.Unix(timestamp, 0)
	if diff := v.now().Sub(signedAt); diff > v.tolerance || diff < -v.tolerance {
		return nil, apperrors.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, apperrors.ErrSignatureInvalid
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, apperrors.NewValidationError("malformed event payload", apperrors.ErrCodeValidationFailed).WithCause(err)
	}
	if envelope.ID == "" || envelope.Type == "" {
		return nil, apperrors.NewValidationError("event payload missing id or type", apperrors.ErrCodeValidationFailed)
	}

	return &VerifiedEvent{
		ID:      envelope.ID,
		Type:    envelope.Type,
		Created: time.Unix(envelope.Created, 0),
		object:  envelope.Data.Object,
		payload: payload,
	}, nil
}

func parseSignatureHeader(header string) (int64, []string) {
	var timestamp int64
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	return timestamp, signatures
}
