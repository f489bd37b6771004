package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	analyticsdomain "github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/config"
	obscontext "github.com/smallbiznis/formpay/internal/observability/context"
	obslogger "github.com/smallbiznis/formpay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/formpay/internal/receipt/domain"
	"github.com/smallbiznis/formpay/pkg/telemetry"
	"github.com/smallbiznis/formpay/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Outcome describes what a delivery led to.
type Outcome string

const (
	OutcomeNoOp            Outcome = "noop"
	OutcomeIgnored         Outcome = "ignored"
	OutcomeRecorded        Outcome = "recorded"
	OutcomeAlreadyRecorded Outcome = "already_recorded"
	OutcomeRejected        Outcome = "rejected"
	OutcomeFailed          Outcome = "failed"
)

type Result struct {
	Outcome       Outcome
	EventType     string
	PaymentID     string
	CorrelationID string
	Receipt       receiptdomain.NotifyOutcome
}

type Params struct {
	fx.In

	Verifier paymentdomain.SignatureVerifier
	Parser   paymentdomain.EventParser
	Recorder analyticsdomain.Recorder
	Notifier receiptdomain.Notifier
	Config   config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Pipeline *telemetry.Metrics  `optional:"true"`

	// Deliveries and Records let a redelivery resend a receipt the first
	// delivery never got out. Without them duplicates never notify.
	Deliveries receiptdomain.DeliveryRepository `optional:"true"`
	Records    analyticsdomain.Repository       `optional:"true"`
}

type Service struct {
	verifier   paymentdomain.SignatureVerifier
	parser     paymentdomain.EventParser
	recorder   analyticsdomain.Recorder
	notifier   receiptdomain.Notifier
	deliveries receiptdomain.DeliveryRepository
	records    analyticsdomain.Repository
	timeout    time.Duration
	log        *zap.Logger
	clock      clock.Clock
	metrics    *obsmetrics.Metrics
	pipeline   *telemetry.Metrics
}

func NewService(p Params) *Service {
	timeout := p.Config.Payment.WebhookTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{
		verifier:   p.Verifier,
		parser:     p.Parser,
		recorder:   p.Recorder,
		notifier:   p.Notifier,
		deliveries: p.Deliveries,
		records:    p.Records,
		timeout:    timeout,
		log:        p.Log.Named("payment.webhook"),
		clock:      clk,
		metrics:    p.Metrics,
		pipeline:   p.Pipeline,
	}
}

// Process runs one delivery through verify, parse, record and notify.
// Verification and parse failures are returned unchanged so the caller can
// answer 4xx. Recording failures are returned wrapped so the provider
// retries. Notification failures are only logged.
func (s *Service) Process(ctx context.Context, payload []byte, signatureHeader string) (Result, error) {
	started := s.clock.Now()
	ctx, cid := correlation.EnsureCorrelationID(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := otel.Tracer("formpay/payment/webhook").Start(ctx, "payment.webhook.process")
	defer span.End()

	log := obslogger.WithContext(ctx, s.log)
	result := Result{CorrelationID: cid}

	finish := func(outcome Outcome, err error) (Result, error) {
		result.Outcome = outcome
		s.pipeline.RecordWebhookDelivery(string(outcome), result.EventType, s.clock.Now().Sub(started))
		span.SetAttributes(
			attribute.String("webhook.outcome", string(outcome)),
			attribute.String("webhook.event_type", result.EventType),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(outcome))
		}
		return result, err
	}

	if err := s.verifier.Verify(payload, signatureHeader); err != nil {
		reason := verificationReason(err)
		s.pipeline.RecordSignatureFailure(reason)
		log.Error("webhook signature rejected", zap.String("reason", reason), zap.Error(err))
		return finish(OutcomeRejected, err)
	}

	parsed, err := s.parser.Parse(payload)
	result.EventType = parsed.ProviderType
	if err != nil {
		log.Warn("webhook payload rejected", zap.String("event_type", parsed.ProviderType), zap.Error(err))
		return finish(OutcomeRejected, err)
	}
	if parsed.NoOp || parsed.Event == nil {
		log.Debug("webhook event ignored", zap.String("event_type", parsed.ProviderType))
		return finish(OutcomeNoOp, nil)
	}

	event := *parsed.Event
	result.PaymentID = event.ProviderPaymentID
	ctx = obscontext.WithFormID(ctx, event.FormID)
	log = obslogger.WithPayment(obslogger.WithContext(ctx, s.log), event.ProviderEventID, event.ProviderPaymentID)
	s.metrics.RecordPaymentEvent(ctx, event.Provider, string(event.Kind))

	// Only successful payments become analytics records. A failed intent can
	// still succeed later under the same payment id.
	if event.Kind != paymentdomain.EventKindSucceeded {
		log.Info("payment event acknowledged", zap.String("kind", string(event.Kind)))
		return finish(OutcomeIgnored, nil)
	}

	outcome, err := s.recorder.Record(ctx, event)
	if err != nil {
		log.Error("analytics record failed", zap.Error(err))
		return finish(OutcomeFailed, fmt.Errorf("record payment event: %w", err))
	}
	if outcome == analyticsdomain.AlreadyRecorded {
		if !s.receiptOutstanding(ctx, log, event) {
			log.Info("duplicate delivery, already recorded")
			return finish(OutcomeAlreadyRecorded, nil)
		}
		log.Info("duplicate delivery, resending receipt")
		receipt, err := s.notifier.Notify(ctx, event)
		result.Receipt = receipt
		if err != nil {
			log.Warn("receipt not delivered", zap.Error(err))
		}
		return finish(OutcomeAlreadyRecorded, nil)
	}

	receipt, err := s.notifier.Notify(ctx, event)
	result.Receipt = receipt
	if err != nil {
		log.Warn("receipt not delivered", zap.Error(err))
	}
	return finish(OutcomeRecorded, nil)
}

// receiptOutstanding reports whether an already recorded payment still owes
// the payer a receipt: no sent or skipped attempt is logged and the record is
// older than one processing window, so the first delivery is no longer in
// flight.
func (s *Service) receiptOutstanding(ctx context.Context, log *zap.Logger, event paymentdomain.PaymentEvent) bool {
	if s.deliveries == nil || s.records == nil {
		return false
	}

	attempts, err := s.deliveries.ListByPaymentID(ctx, event.ProviderPaymentID)
	if err != nil {
		log.Warn("receipt log lookup failed", zap.Error(err))
		return false
	}
	for _, a := range attempts {
		switch receiptdomain.NotifyOutcome(a.Status) {
		case receiptdomain.Sent, receiptdomain.Skipped:
			return false
		}
	}

	record, err := s.records.FindByProviderPaymentID(ctx, event.ProviderPaymentID)
	if err != nil {
		log.Warn("analytics record lookup failed", zap.Error(err))
		return false
	}
	return s.clock.Now().Sub(record.CreatedAt) >= s.timeout
}

func verificationReason(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, paymentdomain.ErrStaleTimestamp):
		return "stale_timestamp"
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "unknown"
	}
}
