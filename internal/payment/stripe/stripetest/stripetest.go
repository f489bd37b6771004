// Package stripetest builds signed provider deliveries for tests.
package stripetest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader signs payload the way the provider does.
func SignatureHeader(secret string, payload []byte, at time.Time) string {
	signature := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(signature))
}

// Intent describes a payment_intent object embedded in an event.
type Intent struct {
	ID         string
	Amount     int64
	Currency   string
	FormID     string
	Email      string
	Country    string
	Method     string
	OccurredAt time.Time
}

// IntentEvent renders a payment_intent.* event payload.
func IntentEvent(eventID, eventType string, in Intent) []byte {
	object := map[string]any{
		"id":              in.ID,
		"object":          "payment_intent",
		"amount":          in.Amount,
		"amount_received": in.Amount,
		"currency":        in.Currency,
		"created":         in.OccurredAt.Unix(),
		"metadata": map[string]string{
			"formId": in.FormID,
			"email":  in.Email,
		},
	}
	if in.Method != "" {
		object["payment_method_types"] = []string{in.Method}
	}
	if in.Country != "" {
		object["shipping"] = map[string]any{"address": map[string]any{"country": in.Country}}
	}
	return Event(eventID, eventType, in.OccurredAt, object)
}

// Event renders an arbitrary event envelope around object.
func Event(eventID, eventType string, created time.Time, object any) []byte {
	payload, err := json.Marshal(map[string]any{
		"id":      eventID,
		"object":  "event",
		"type":    eventType,
		"created": created.Unix(),
		"data":    map[string]any{"object": object},
	})
	if err != nil {
		panic(err)
	}
	return payload
}
