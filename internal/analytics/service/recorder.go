package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/clock"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type RecorderParams struct {
	fx.In

	Repo    domain.Repository
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Recorder struct {
	repo    domain.Repository
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func NewRecorder(p RecorderParams) *Recorder {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Recorder{
		repo:    p.Repo,
		log:     p.Log.Named("analytics.recorder"),
		genID:   p.GenID,
		clock:   clk,
		metrics: p.Metrics,
	}
}

// Record writes one analytics row for the event. A duplicate provider
// payment id is reported as AlreadyRecorded, not as an error.
func (r *Recorder) Record(ctx context.Context, event paymentdomain.PaymentEvent) (domain.RecordOutcome, error) {
	if strings.TrimSpace(event.ProviderPaymentID) == "" || !event.Kind.Valid() {
		return "", domain.ErrNotRecordable
	}

	record := r.buildRecord(event)
	err := r.repo.Insert(ctx, record)
	switch {
	case err == nil:
		r.observe(ctx, domain.Recorded)
		r.log.Info("analytics record stored",
			zap.String("provider_payment_id", record.ProviderPaymentID),
			zap.String("form_id", record.FormID),
			zap.Int64("amount", record.Amount),
			zap.String("currency", record.Currency),
		)
		return domain.Recorded, nil
	case errors.Is(err, domain.ErrDuplicateKey):
		r.observe(ctx, domain.AlreadyRecorded)
		r.log.Debug("analytics record already present",
			zap.String("provider_payment_id", record.ProviderPaymentID),
		)
		return domain.AlreadyRecorded, nil
	default:
		r.observe(ctx, "error")
		return "", fmt.Errorf("record payment %s: %w", record.ProviderPaymentID, err)
	}
}

func (r *Recorder) buildRecord(event paymentdomain.PaymentEvent) *domain.Record {
	now := r.clock.Now().UTC()
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	record := &domain.Record{
		ID:                r.genID.Generate(),
		FormID:            strings.TrimSpace(event.FormID),
		Date:              occurred.UTC(),
		Amount:            event.Amount,
		Currency:          strings.ToLower(event.Currency),
		Status:            string(event.Kind),
		Country:           strings.ToUpper(strings.TrimSpace(event.Country)),
		PaymentMethod:     strings.TrimSpace(event.PaymentMethod),
		CustomerEmail:     strings.TrimSpace(event.CustomerEmail),
		ProviderPaymentID: strings.TrimSpace(event.ProviderPaymentID),
		ProviderEventID:   event.ProviderEventID,
		CreatedAt:         now,
	}
	if len(event.Metadata) > 0 {
		meta := make(datatypes.JSONMap, len(event.Metadata))
		for k, v := range event.Metadata {
			meta[k] = v
		}
		record.Metadata = meta
	}
	return record
}

func (r *Recorder) observe(ctx context.Context, outcome domain.RecordOutcome) {
	r.metrics.RecordAnalytics(ctx, string(outcome))
}

var _ domain.Recorder = (*Recorder)(nil)
