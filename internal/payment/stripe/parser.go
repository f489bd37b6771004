package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	stripego "github.com/stripe/stripe-go/v82"
)

// Parser decodes verified webhook payloads into payment events.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(payload []byte) (paymentdomain.ParseResult, error) {
	var evt stripego.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return paymentdomain.ParseResult{}, fmt.Errorf("%w: decode envelope: %v", paymentdomain.ErrMalformedEvent, err)
	}
	eventType := strings.TrimSpace(string(evt.Type))
	if strings.TrimSpace(evt.ID) == "" || eventType == "" {
		return paymentdomain.ParseResult{}, fmt.Errorf("%w: missing id or type", paymentdomain.ErrMalformedEvent)
	}

	var (
		event *paymentdomain.PaymentEvent
		err   error
	)
	switch evt.Type {
	case stripego.EventTypePaymentIntentSucceeded:
		event, err = parsePaymentIntent(evt, paymentdomain.EventKindSucceeded)
	case stripego.EventTypePaymentIntentPaymentFailed:
		event, err = parsePaymentIntent(evt, paymentdomain.EventKindFailed)
	case stripego.EventTypeChargeRefunded:
		event, err = parseChargeRefund(evt)
	default:
		return paymentdomain.ParseResult{NoOp: true, ProviderType: eventType}, nil
	}
	if err != nil {
		return paymentdomain.ParseResult{ProviderType: eventType}, err
	}

	event.Provider = paymentdomain.ProviderStripe
	event.ProviderEventID = evt.ID
	event.ProviderType = eventType
	if err := validateEvent(event); err != nil {
		return paymentdomain.ParseResult{ProviderType: eventType}, err
	}
	return paymentdomain.ParseResult{Event: event, ProviderType: eventType}, nil
}

func parsePaymentIntent(evt stripego.Event, kind paymentdomain.EventKind) (*paymentdomain.PaymentEvent, error) {
	raw, err := eventObject(evt)
	if err != nil {
		return nil, err
	}
	var intent stripego.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: decode payment_intent: %v", paymentdomain.ErrMalformedEvent, err)
	}

	amount := intent.Amount
	if kind == paymentdomain.EventKindSucceeded && intent.AmountReceived > 0 {
		amount = intent.AmountReceived
	}

	event := &paymentdomain.PaymentEvent{
		ProviderPaymentID: intent.ID,
		Kind:              kind,
		Amount:            amount,
		Currency:          string(intent.Currency),
		Metadata:          copyMetadata(intent.Metadata),
		OccurredAt:        timestamp(evt.Created, intent.Created),
	}
	event.FormID = intent.Metadata[paymentdomain.MetadataFormID]
	event.CustomerEmail = firstNonEmpty(intent.Metadata[paymentdomain.MetadataEmail], intent.ReceiptEmail)
	if intent.Shipping != nil && intent.Shipping.Address != nil {
		event.Country = intent.Shipping.Address.Country
	}
	if len(intent.PaymentMethodTypes) > 0 {
		event.PaymentMethod = intent.PaymentMethodTypes[0]
	}
	return event, nil
}

func parseChargeRefund(evt stripego.Event) (*paymentdomain.PaymentEvent, error) {
	raw, err := eventObject(evt)
	if err != nil {
		return nil, err
	}
	var charge stripego.Charge
	if err := json.Unmarshal(raw, &charge); err != nil {
		return nil, fmt.Errorf("%w: decode charge: %v", paymentdomain.ErrMalformedEvent, err)
	}

	paymentID := charge.ID
	if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
		paymentID = charge.PaymentIntent.ID
	}

	event := &paymentdomain.PaymentEvent{
		ProviderPaymentID: paymentID,
		Kind:              paymentdomain.EventKindRefunded,
		Amount:            charge.AmountRefunded,
		Currency:          string(charge.Currency),
		Metadata:          copyMetadata(charge.Metadata),
		OccurredAt:        timestamp(evt.Created, charge.Created),
	}
	event.FormID = charge.Metadata[paymentdomain.MetadataFormID]

	var billingEmail string
	if charge.BillingDetails != nil {
		billingEmail = charge.BillingDetails.Email
		if charge.BillingDetails.Address != nil {
			event.Country = charge.BillingDetails.Address.Country
		}
	}
	event.CustomerEmail = firstNonEmpty(charge.Metadata[paymentdomain.MetadataEmail], charge.ReceiptEmail, billingEmail)
	if charge.PaymentMethodDetails != nil {
		event.PaymentMethod = string(charge.PaymentMethodDetails.Type)
	}
	return event, nil
}

func eventObject(evt stripego.Event) (json.RawMessage, error) {
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: missing data.object", paymentdomain.ErrMalformedEvent)
	}
	return evt.Data.Raw, nil
}

func validateEvent(event *paymentdomain.PaymentEvent) error {
	if strings.TrimSpace(event.ProviderPaymentID) == "" {
		return fmt.Errorf("%w: missing payment id", paymentdomain.ErrMalformedEvent)
	}
	if event.Amount < 0 {
		return fmt.Errorf("%w: negative amount", paymentdomain.ErrMalformedEvent)
	}
	if !paymentdomain.IsCurrencyCode(event.Currency) {
		return fmt.Errorf("%w: currency %q", paymentdomain.ErrMalformedEvent, event.Currency)
	}
	event.Currency = strings.ToLower(event.Currency)
	return nil
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func timestamp(primary, fallback int64) time.Time {
	if primary > 0 {
		return time.Unix(primary, 0).UTC()
	}
	if fallback > 0 {
		return time.Unix(fallback, 0).UTC()
	}
	return time.Now().UTC()
}

var _ paymentdomain.EventParser = (*Parser)(nil)
