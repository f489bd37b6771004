package stripe

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/formpay/internal/clock"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/stripe/stripe-go/v82/webhook"
)

const SignatureHeader = "Stripe-Signature"

const signatureScheme = "v1"

// Verifier authenticates webhook payloads against the signing secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
	clock     clock.Clock
}

func NewVerifier(client *Client, clk clock.Clock) *Verifier {
	return &Verifier{
		secret:    client.WebhookSecret(),
		tolerance: client.Tolerance(),
		clock:     clk,
	}
}

// Verify checks header against the exact raw payload bytes. The signature is
// matched before the timestamp is trusted.
func (v *Verifier) Verify(payload []byte, header string) error {
	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := webhook.ComputeSignature(ts, payload, v.secret)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return paymentdomain.ErrInvalidSignature
	}

	age := v.clock.Now().Sub(ts)
	if age < 0 {
		age = -age
	}
	if age > v.tolerance {
		return paymentdomain.ErrStaleTimestamp
	}
	return nil
}

func parseSignatureHeader(header string) (time.Time, [][]byte, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return time.Time{}, nil, fmt.Errorf("%w: empty header", paymentdomain.ErrMalformedHeader)
	}

	var (
		ts         time.Time
		hasTS      bool
		hasScheme  bool
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			unix, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return time.Time{}, nil, fmt.Errorf("%w: bad timestamp", paymentdomain.ErrMalformedHeader)
			}
			ts = time.Unix(unix, 0).UTC()
			hasTS = true
		case signatureScheme:
			hasScheme = true
			sig, err := hex.DecodeString(value)
			if err != nil {
				// cannot match; other entries still might
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if !hasTS {
		return time.Time{}, nil, fmt.Errorf("%w: missing timestamp", paymentdomain.ErrMalformedHeader)
	}
	if !hasScheme {
		return time.Time{}, nil, fmt.Errorf("%w: missing %s signature", paymentdomain.ErrMalformedHeader, signatureScheme)
	}
	if len(signatures) == 0 {
		return time.Time{}, nil, paymentdomain.ErrInvalidSignature
	}
	return ts, signatures, nil
}

var _ paymentdomain.SignatureVerifier = (*Verifier)(nil)
