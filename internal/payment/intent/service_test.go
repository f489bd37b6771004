package intent

import (
	"context"
	"fmt"
	"testing"

	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type providerStub struct {
	calls  []paymentdomain.IntentParams
	secret string
	err    error
}

func (p *providerStub) CreatePaymentIntent(_ context.Context, params paymentdomain.IntentParams) (string, error) {
	p.calls = append(p.calls, params)
	return p.secret, p.err
}

func newService(provider paymentdomain.IntentProvider) *Service {
	return NewService(Params{Provider: provider, Log: zap.NewNop()})
}

func TestCreateIntentPassesMetadata(t *testing.T) {
	provider := &providerStub{secret: "pi_1_secret_abc"}
	svc := newService(provider)

	resp, err := svc.CreateIntent(context.Background(), Request{
		Amount:   2500,
		Currency: " USD ",
		Email:    "payer@example.com",
		FormID:   "form_1",
		Metadata: map[string]string{"campaign": "spring"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_abc", resp.ClientSecret)

	require.Len(t, provider.calls, 1)
	call := provider.calls[0]
	assert.Equal(t, int64(2500), call.Amount)
	assert.Equal(t, "usd", call.Currency)
	assert.Equal(t, "payer@example.com", call.PayerEmail)
	assert.Equal(t, "form_1", call.FormID)
	assert.Equal(t, "spring", call.Metadata["campaign"])
	assert.NotEmpty(t, call.IdempotencyKey)
}

func TestCreateIntentKeepsCallerIdempotencyKey(t *testing.T) {
	provider := &providerStub{secret: "secret"}
	_, err := newService(provider).CreateIntent(context.Background(), Request{
		Amount: 100, Currency: "eur", FormID: "form_1", IdempotencyKey: "checkout-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "checkout-42", provider.calls[0].IdempotencyKey)
}

func TestCreateIntentValidation(t *testing.T) {
	valid := Request{Amount: 100, Currency: "usd", Email: "payer@example.com", FormID: "form_1"}

	cases := []struct {
		name   string
		mutate func(*Request)
		want   error
	}{
		{"zero amount", func(r *Request) { r.Amount = 0 }, paymentdomain.ErrInvalidAmount},
		{"negative amount", func(r *Request) { r.Amount = -5 }, paymentdomain.ErrInvalidAmount},
		{"empty currency", func(r *Request) { r.Currency = "" }, paymentdomain.ErrInvalidCurrency},
		{"two letters", func(r *Request) { r.Currency = "us" }, paymentdomain.ErrInvalidCurrency},
		{"four letters", func(r *Request) { r.Currency = "usdd" }, paymentdomain.ErrInvalidCurrency},
		{"digits", func(r *Request) { r.Currency = "u5d" }, paymentdomain.ErrInvalidCurrency},
		{"bad email", func(r *Request) { r.Email = "not-an-email" }, paymentdomain.ErrInvalidEmail},
		{"missing form", func(r *Request) { r.FormID = " " }, paymentdomain.ErrInvalidForm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &providerStub{secret: "secret"}
			req := valid
			tc.mutate(&req)

			_, err := newService(provider).CreateIntent(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, provider.calls)
		})
	}
}

func TestCreateIntentAcceptsValidPairs(t *testing.T) {
	for _, currency := range []string{"usd", "EUR", "jpy", "Idr"} {
		for _, amount := range []int64{1, 50, 999999} {
			t.Run(fmt.Sprintf("%s-%d", currency, amount), func(t *testing.T) {
				_, err := newService(&providerStub{secret: "s"}).CreateIntent(context.Background(), Request{
					Amount: amount, Currency: currency, FormID: "form_1",
				})
				assert.NoError(t, err)
			})
		}
	}
}

func TestCreateIntentProviderErrors(t *testing.T) {
	for _, providerErr := range []error{
		fmt.Errorf("%w: status 503", paymentdomain.ErrProviderUnavailable),
		fmt.Errorf("%w: amount too small", paymentdomain.ErrProviderRejected),
	} {
		_, err := newService(&providerStub{err: providerErr}).CreateIntent(context.Background(), Request{
			Amount: 100, Currency: "usd", FormID: "form_1",
		})
		assert.ErrorIs(t, err, providerErr)
	}
}
