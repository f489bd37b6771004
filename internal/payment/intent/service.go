package intent

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Request is one checkout attempt. It is never persisted.
type Request struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Email          string            `json:"email"`
	FormID         string            `json:"formId"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"-"`
}

type Response struct {
	ClientSecret string `json:"clientSecret"`
}

type Params struct {
	fx.In

	Provider paymentdomain.IntentProvider
	Log      *zap.Logger
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	provider paymentdomain.IntentProvider
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
	validate *validator.Validate
}

func NewService(p Params) *Service {
	return &Service{
		provider: p.Provider,
		log:      p.Log.Named("payment.intent"),
		metrics:  p.Metrics,
		validate: validator.New(),
	}
}

// CreateIntent validates the request and asks the provider for a client
// secret. Form id and payer email ride along as provider metadata.
func (s *Service) CreateIntent(ctx context.Context, req Request) (Response, error) {
	params, err := s.normalize(req)
	if err != nil {
		s.metrics.RecordIntent(ctx, "invalid", req.Currency)
		return Response{}, err
	}

	secret, err := s.provider.CreatePaymentIntent(ctx, params)
	if err != nil {
		outcome := "provider_error"
		if errors.Is(err, paymentdomain.ErrProviderRejected) {
			outcome = "rejected"
		}
		s.metrics.RecordIntent(ctx, outcome, params.Currency)
		s.log.Warn("payment intent creation failed",
			zap.String("form_id", params.FormID),
			zap.Int64("amount", params.Amount),
			zap.String("currency", params.Currency),
			zap.Error(err),
		)
		return Response{}, err
	}

	s.metrics.RecordIntent(ctx, "created", params.Currency)
	s.log.Info("payment intent created",
		zap.String("form_id", params.FormID),
		zap.Int64("amount", params.Amount),
		zap.String("currency", params.Currency),
	)
	return Response{ClientSecret: secret}, nil
}

func (s *Service) normalize(req Request) (paymentdomain.IntentParams, error) {
	if req.Amount <= 0 {
		return paymentdomain.IntentParams{}, paymentdomain.ErrInvalidAmount
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if !paymentdomain.IsCurrencyCode(currency) {
		return paymentdomain.IntentParams{}, paymentdomain.ErrInvalidCurrency
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if err := s.validate.Var(email, "email"); err != nil {
			return paymentdomain.IntentParams{}, paymentdomain.ErrInvalidEmail
		}
	}
	formID := strings.TrimSpace(req.FormID)
	if formID == "" {
		return paymentdomain.IntentParams{}, paymentdomain.ErrInvalidForm
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	return paymentdomain.IntentParams{
		Amount:         req.Amount,
		Currency:       currency,
		PayerEmail:     email,
		FormID:         formID,
		Metadata:       req.Metadata,
		IdempotencyKey: key,
	}, nil
}
