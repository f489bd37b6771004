package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/observability"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/payment/intent"
	"github.com/smallbiznis/formpay/internal/payment/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebhooks struct {
	payload []byte
	header  string
	result  webhook.Result
	err     error
}

func (f *fakeWebhooks) Process(_ context.Context, payload []byte, header string) (webhook.Result, error) {
	f.payload = payload
	f.header = header
	return f.result, f.err
}

type fakeIntents struct {
	req  intent.Request
	resp intent.Response
	err  error
}

func (f *fakeIntents) CreateIntent(_ context.Context, req intent.Request) (intent.Response, error) {
	f.req = req
	return f.resp, f.err
}

type fakeAnalytics struct {
	formID    string
	dateRange analyticsdomain.DateRange
	result    analyticsdomain.QueryResult
	err       error
}

func (f *fakeAnalytics) Query(_ context.Context, formID string, dateRange analyticsdomain.DateRange) (analyticsdomain.QueryResult, error) {
	f.formID = formID
	f.dateRange = dateRange
	return f.result, f.err
}

func newTestServer(t *testing.T, wh *fakeWebhooks, in *fakeIntents, an *fakeAnalytics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		engine:    NewEngine(observability.Config{LogLevel: "error"}, nil),
		webhooks:  wh,
		intents:   in,
		analytics: an,
	}
	s.registerAPIRoutes()
	return s.engine
}

func do(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestWebhookAcknowledgesProcessedDelivery(t *testing.T) {
	wh := &fakeWebhooks{result: webhook.Result{Outcome: webhook.OutcomeRecorded, CorrelationID: "cid-1"}}
	r := newTestServer(t, wh, &fakeIntents{}, &fakeAnalytics{})

	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	w := do(r, http.MethodPost, "/api/webhook", payload, map[string]string{"Stripe-Signature": "t=1,v1=abc"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, payload, string(wh.payload))
	assert.Equal(t, "t=1,v1=abc", wh.header)
	assert.Equal(t, "cid-1", w.Header().Get("X-Correlation-Id"))
}

func TestWebhookAcknowledgesDuplicateAndIgnored(t *testing.T) {
	for _, outcome := range []webhook.Outcome{webhook.OutcomeAlreadyRecorded, webhook.OutcomeIgnored, webhook.OutcomeNoOp} {
		t.Run(string(outcome), func(t *testing.T) {
			r := newTestServer(t, &fakeWebhooks{result: webhook.Result{Outcome: outcome}}, &fakeIntents{}, &fakeAnalytics{})
			w := do(r, http.MethodPost, "/api/webhook", `{}`, nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestWebhookErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"invalid signature", paymentdomain.ErrInvalidSignature, http.StatusBadRequest, "webhook_verification_failed"},
		{"stale timestamp", paymentdomain.ErrStaleTimestamp, http.StatusBadRequest, "webhook_verification_failed"},
		{"malformed header", paymentdomain.ErrMalformedHeader, http.StatusBadRequest, "webhook_verification_failed"},
		{"malformed event", fmt.Errorf("%w: missing id", paymentdomain.ErrMalformedEvent), http.StatusBadRequest, "webhook_malformed_event"},
		{"storage failure", fmt.Errorf("record payment event: %w", assert.AnError), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestServer(t, &fakeWebhooks{err: tt.err}, &fakeIntents{}, &fakeAnalytics{})
			w := do(r, http.MethodPost, "/api/webhook", `{}`, map[string]string{"Stripe-Signature": "bad"})

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, decodeError(t, w).Type)
		})
	}
}

func TestWebhookSignatureMessageNamesReason(t *testing.T) {
	r := newTestServer(t, &fakeWebhooks{err: paymentdomain.ErrStaleTimestamp}, &fakeIntents{}, &fakeAnalytics{})
	w := do(r, http.MethodPost, "/api/webhook", `{}`, nil)

	assert.Equal(t, "stale_timestamp", decodeError(t, w).Message)
}

func TestCreatePaymentIntent(t *testing.T) {
	in := &fakeIntents{resp: intent.Response{ClientSecret: "pi_1_secret_abc"}}
	r := newTestServer(t, &fakeWebhooks{}, in, &fakeAnalytics{})

	body := `{"amount":2500,"currency":"usd","email":"ada@example.com","formId":"form_1","metadata":{"ref":"x"}}`
	w := do(r, http.MethodPost, "/api/create-payment-intent", body, map[string]string{"Idempotency-Key": " key-1 "})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clientSecret":"pi_1_secret_abc"}`, w.Body.String())
	assert.Equal(t, int64(2500), in.req.Amount)
	assert.Equal(t, "usd", in.req.Currency)
	assert.Equal(t, "ada@example.com", in.req.Email)
	assert.Equal(t, "form_1", in.req.FormID)
	assert.Equal(t, "x", in.req.Metadata["ref"])
	assert.Equal(t, "key-1", in.req.IdempotencyKey)
}

func TestCreatePaymentIntentErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"amount":`, nil, http.StatusBadRequest, "invalid_request"},
		{"invalid amount", `{"amount":0}`, paymentdomain.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{"invalid currency", `{"amount":1}`, paymentdomain.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
		{"invalid email", `{"amount":1}`, paymentdomain.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
		{"provider rejected", `{"amount":1}`, fmt.Errorf("%w: bad", paymentdomain.ErrProviderRejected), http.StatusBadRequest, ""},
		{"provider down", `{"amount":1}`, fmt.Errorf("%w: timeout", paymentdomain.ErrProviderUnavailable), http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{err: tt.err}, &fakeAnalytics{})
			w := do(r, http.MethodPost, "/api/create-payment-intent", tt.body, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				payload := decodeError(t, w)
				require.Len(t, payload.Errors, 1)
				assert.Equal(t, tt.wantCode, payload.Errors[0].Code)
			}
		})
	}
}

func TestAnalyticsPostWithRange(t *testing.T) {
	an := &fakeAnalytics{result: analyticsdomain.QueryResult{
		DailyData: []analyticsdomain.DailyBucket{
			{Date: "2024-01-01", TotalAmount: 800, Count: 2, AvgAmount: 400},
		},
		Summary: analyticsdomain.Summary{
			TotalRevenue:        800,
			TotalTransactions:   2,
			AvgTransactionValue: 400,
			Countries:           []string{"US"},
			PaymentMethods:      []string{"card"},
		},
	}}
	r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, an)

	w := do(r, http.MethodPost, "/api/analytics/form_1", `{"startDate":"2024-01-01","endDate":"2024-01-31"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"dailyData":[{"date":"2024-01-01","totalAmount":800,"count":2,"avgAmount":400}],
		"summary":{"totalRevenue":800,"totalTransactions":2,"avgTransactionValue":400,"countries":["US"],"paymentMethods":["card"]}
	}`, w.Body.String())
	assert.Equal(t, "form_1", an.formID)
	require.NotNil(t, an.dateRange.Start)
	require.NotNil(t, an.dateRange.End)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *an.dateRange.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), *an.dateRange.End)
}

func TestAnalyticsPostWithoutBody(t *testing.T) {
	an := &fakeAnalytics{}
	r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, an)

	w := do(r, http.MethodPost, "/api/analytics/form_1", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, an.dateRange.Start)
	assert.Nil(t, an.dateRange.End)
}

func TestAnalyticsGetWithQueryParams(t *testing.T) {
	an := &fakeAnalytics{}
	r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, an)

	w := do(r, http.MethodGet, "/api/analytics/form_1?startDate=2024-01-02T10:00:00%2B02:00", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, an.dateRange.Start)
	assert.Equal(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), *an.dateRange.Start)
	assert.Nil(t, an.dateRange.End)
}

func TestAnalyticsErrors(t *testing.T) {
	t.Run("bad date", func(t *testing.T) {
		r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, &fakeAnalytics{})
		w := do(r, http.MethodGet, "/api/analytics/form_1?endDate=yesterday", "", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		payload := decodeError(t, w)
		require.Len(t, payload.Errors, 1)
		assert.Equal(t, "endDate", payload.Errors[0].Field)
	})

	t.Run("inverted range", func(t *testing.T) {
		r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, &fakeAnalytics{err: analyticsdomain.ErrInvalidDateRange})
		w := do(r, http.MethodGet, "/api/analytics/form_1?startDate=2024-02-01&endDate=2024-01-01", "", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_date_range", decodeError(t, w).Errors[0].Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, &fakeAnalytics{err: assert.AnError})
		w := do(r, http.MethodGet, "/api/analytics/form_1", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHealth(t *testing.T) {
	r := newTestServer(t, &fakeWebhooks{}, &fakeIntents{}, &fakeAnalytics{})
	w := do(r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(paymentdomain.ErrInvalidSignature)
	assert.Equal(t, "client_error", kind)
	assert.Equal(t, "invalid_signature", code)

	kind, code = classifyErrorForLog(paymentdomain.ErrInvalidAmount)
	assert.Equal(t, "client_error", kind)
	assert.Equal(t, "invalid_amount", code)

	kind, _ = classifyErrorForLog(assert.AnError)
	assert.Equal(t, "server_error", kind)
}

func TestParseDateBound(t *testing.T) {
	got, err := parseDateBound("", true)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDateBound("2024-03-05", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseDateBound("2024-03-05", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC), *got)

	_, err = parseDateBound("05/03/2024", false)
	assert.Error(t, err)
}
