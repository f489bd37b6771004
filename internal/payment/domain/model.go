package domain

import (
	"context"
	"time"
)

const ProviderStripe = "stripe"

// EventKind is the closed set of payment outcomes the pipeline understands.
type EventKind string

const (
	EventKindSucceeded EventKind = "succeeded"
	EventKindFailed    EventKind = "failed"
	EventKindRefunded  EventKind = "refunded"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventKindSucceeded, EventKindFailed, EventKindRefunded:
		return true
	default:
		return false
	}
}

// Metadata keys attached to provider-side intents.
const (
	MetadataFormID = "formId"
	MetadataEmail  = "email"
)

// PaymentEvent is a verified, parsed webhook payload. It only lives for the
// duration of one delivery.
type PaymentEvent struct {
	Provider          string
	ProviderEventID   string
	ProviderPaymentID string
	ProviderType      string
	Kind              EventKind
	Amount            int64
	Currency          string
	CustomerEmail     string
	FormID            string
	Country           string
	PaymentMethod     string
	Metadata          map[string]string
	OccurredAt        time.Time
}

// ParseResult is returned by the event parser. NoOp is set for provider
// event kinds the pipeline intentionally ignores.
type ParseResult struct {
	Event        *PaymentEvent
	NoOp         bool
	ProviderType string
}

type SignatureVerifier interface {
	Verify(payload []byte, header string) error
}

type EventParser interface {
	Parse(payload []byte) (ParseResult, error)
}

// IntentParams is what the provider needs to mint a payment intent.
type IntentParams struct {
	Amount         int64
	Currency       string
	PayerEmail     string
	FormID         string
	Metadata       map[string]string
	IdempotencyKey string
}

// IntentProvider mints provider-side payment intents.
type IntentProvider interface {
	CreatePaymentIntent(ctx context.Context, params IntentParams) (string, error)
}

// IsCurrencyCode reports whether code looks like an ISO 4217 alphabetic code.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
