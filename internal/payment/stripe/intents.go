package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	stripego "github.com/stripe/stripe-go/v82"
)

// CreatePaymentIntent mints an intent and returns its client secret. Form id
// and payer email travel as intent metadata so the webhook can be correlated
// back to the form without a local lookup table.
func (c *Client) CreatePaymentIntent(ctx context.Context, p paymentdomain.IntentParams) (string, error) {
	params := &stripego.PaymentIntentCreateParams{
		Amount:   stripego.Int64(p.Amount),
		Currency: stripego.String(strings.ToLower(p.Currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if email := strings.TrimSpace(p.PayerEmail); email != "" {
		params.ReceiptEmail = stripego.String(email)
	}
	for key, value := range p.Metadata {
		params.AddMetadata(key, value)
	}
	params.AddMetadata(paymentdomain.MetadataFormID, p.FormID)
	params.AddMetadata(paymentdomain.MetadataEmail, p.PayerEmail)
	if key := strings.TrimSpace(p.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return "", classifyProviderError(err)
	}
	if intent == nil || strings.TrimSpace(intent.ClientSecret) == "" {
		return "", fmt.Errorf("%w: empty client secret", paymentdomain.ErrProviderUnavailable)
	}
	return intent.ClientSecret, nil
}

// classifyProviderError separates requests the provider refused from
// transport and provider-side failures.
func classifyProviderError(err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		status := stripeErr.HTTPStatusCode
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError &&
			status != http.StatusTooManyRequests && status != http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", paymentdomain.ErrProviderRejected, stripeErr.Msg)
		}
		return fmt.Errorf("%w: status %d", paymentdomain.ErrProviderUnavailable, status)
	}
	return fmt.Errorf("%w: %v", paymentdomain.ErrProviderUnavailable, err)
}

var _ paymentdomain.IntentProvider = (*Client)(nil)
