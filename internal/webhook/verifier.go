package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Verification failures surfaced to the handler layer.
var (
	ErrMissingHeaders = errors.New("webhook: missing signature headers")
	ErrStaleTimestamp = errors.New("webhook: timestamp outside tolerance")
	ErrNoValidSig     = errors.New("webhook: no matching signature")
)

// DefaultTolerance bounds how far a delivery timestamp may drift from now.
const DefaultTolerance = 5 * time.Minute

// Delivery identifies one verified webhook delivery.
type Delivery struct {
	MessageID string
	Timestamp time.Time
}

// Verifier checks a webhook payload against its delivery headers. The handler
// depends on this interface only, so tests can substitute an allow-all stub.
type Verifier interface {
	Verify(payload []byte, headers http.Header) (Delivery, error)
}

// HMACVerifier implements the svix-compatible signing scheme used by the
// hosted identity provider: HMAC-SHA256 over "id.timestamp.payload" with a
// base64 key, signatures delivered as space-separated "v1,<base64>" entries.
type HMACVerifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// VerifierOption customises the HMACVerifier.
type VerifierOption func(*HMACVerifier)

// WithTolerance overrides the permitted timestamp drift.
func WithTolerance(d time.Duration) VerifierOption {
	return func(v *HMACVerifier) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// WithNow overrides the clock, primarily for tests.
func WithNow(now func() time.Time) VerifierOption {
	return func(v *HMACVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewHMACVerifier builds a verifier from the provider-issued signing secret.
// Secrets are commonly prefixed "whsec_" followed by the base64 key; a secret
// that does not decode as base64 is used as raw bytes.
func NewHMACVerifier(secret string, opts ...VerifierOption) (*HMACVerifier, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(secret), "whsec_"))
	if trimmed == "" {
		return nil, errors.New("webhook: signing secret is required")
	}

	key, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		key = []byte(trimmed)
	}

	v := &HMACVerifier{
		key:       key,
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify checks the delivery signature and timestamp and returns the delivery
// identity on success.
func (v *HMACVerifier) Verify(payload []byte, headers http.Header) (Delivery, error) {
	id := headerValue(headers, "svix-id", "webhook-id")
	timestamp := headerValue(headers, "svix-timestamp", "webhook-timestamp")
	signatures := headerValue(headers, "svix-signature", "webhook-signature")
	if id == "" || timestamp == "" || signatures == "" {
		return Delivery{}, ErrMissingHeaders
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return Delivery{}, fmt.Errorf("webhook: parse timestamp: %w", err)
	}
	ts := time.Unix(unix, 0)

	now := v.now()
	if ts.Before(now.Add(-v.tolerance)) || ts.After(now.Add(v.tolerance)) {
		return Delivery{}, ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%s.", id, timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, entry := range strings.Fields(signatures) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return Delivery{MessageID: id, Timestamp: ts}, nil
		}
	}

	return Delivery{}, ErrNoValidSig
}

func headerValue(headers http.Header, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(headers.Get(name)); value != "" {
			return value
		}
	}
	return ""
}
