package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/smallbiznis/formpay/internal/analytics/repository"
	"github.com/smallbiznis/formpay/internal/clock"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepo(t *testing.T) (domain.Repository, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&domain.Record{}))
	return repository.NewGorm(conn), conn
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func newRecorder(t *testing.T, repo domain.Repository) *Recorder {
	return NewRecorder(RecorderParams{
		Repo:  repo,
		Log:   zap.NewNop(),
		GenID: mustNode(t),
		Clock: clock.NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func succeeded(paymentID string, amount int64, at time.Time) paymentdomain.PaymentEvent {
	return paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderStripe,
		ProviderEventID:   "evt_" + paymentID,
		ProviderPaymentID: paymentID,
		Kind:              paymentdomain.EventKindSucceeded,
		Amount:            amount,
		Currency:          "usd",
		CustomerEmail:     "payer@example.com",
		FormID:            "form_1",
		Metadata:          map[string]string{"formId": "form_1"},
		OccurredAt:        at,
	}
}

func TestRecordTwiceStoresOneRecord(t *testing.T) {
	repo, db := setupRepo(t)
	recorder := newRecorder(t, repo)
	query := NewQueryService(QueryParams{Repo: repo, Log: zap.NewNop()})
	ctx := context.Background()
	event := succeeded("pi_1", 500, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

	outcome, err := recorder.Record(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.Recorded, outcome)

	outcome, err = recorder.Record(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.AlreadyRecorded, outcome)

	var count int64
	require.NoError(t, db.Model(&domain.Record{}).Where("provider_payment_id = ?", "pi_1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	result, err := query.Query(ctx, "form_1", domain.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.Summary.TotalRevenue)
}

func TestRecordNormalizesFields(t *testing.T) {
	repo, _ := setupRepo(t)
	recorder := newRecorder(t, repo)
	ctx := context.Background()

	event := succeeded("pi_norm", 700, time.Date(2024, 1, 2, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)))
	event.Currency = "EUR"
	event.Country = "de"
	event.PaymentMethod = "card"

	_, err := recorder.Record(ctx, event)
	require.NoError(t, err)

	stored, err := repo.FindByProviderPaymentID(ctx, "pi_norm")
	require.NoError(t, err)
	assert.Equal(t, "eur", stored.Currency)
	assert.Equal(t, "DE", stored.Country)
	assert.Equal(t, "succeeded", stored.Status)
	assert.Equal(t, "2024-01-03", stored.Date.UTC().Format("2006-01-02"))
	assert.Equal(t, "form_1", stored.Metadata["formId"])
}

func TestRecordFallsBackToClockWithoutTimestamp(t *testing.T) {
	repo, _ := setupRepo(t)
	recorder := newRecorder(t, repo)
	ctx := context.Background()

	_, err := recorder.Record(ctx, succeeded("pi_clock", 100, time.Time{}))
	require.NoError(t, err)

	stored, err := repo.FindByProviderPaymentID(ctx, "pi_clock")
	require.NoError(t, err)
	assert.True(t, stored.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRecordRejectsUnrecordableEvent(t *testing.T) {
	repo, _ := setupRepo(t)
	recorder := newRecorder(t, repo)

	_, err := recorder.Record(context.Background(), paymentdomain.PaymentEvent{Kind: paymentdomain.EventKindSucceeded})
	assert.ErrorIs(t, err, domain.ErrNotRecordable)
}

type failingRepo struct {
	domain.Repository
	err error
}

func (f failingRepo) Insert(context.Context, *domain.Record) error { return f.err }

func TestRecordPropagatesStorageErrors(t *testing.T) {
	storageErr := errors.New("connection refused")
	recorder := newRecorder(t, failingRepo{err: storageErr})

	outcome, err := recorder.Record(context.Background(), succeeded("pi_err", 100, time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, outcome)
}

func TestQueryBucketsAndRange(t *testing.T) {
	repo, _ := setupRepo(t)
	recorder := newRecorder(t, repo)
	query := NewQueryService(QueryParams{Repo: repo, Log: zap.NewNop()})
	ctx := context.Background()

	_, err := recorder.Record(ctx, succeeded("pi_a", 500, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = recorder.Record(ctx, succeeded("pi_b", 300, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	failed := succeeded("pi_c", 900, time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC))
	failed.Kind = paymentdomain.EventKindFailed
	_, err = recorder.Record(ctx, failed)
	require.NoError(t, err)

	result, err := query.Query(ctx, "form_1", domain.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, []domain.DailyBucket{
		{Date: "2024-01-01", TotalAmount: 500, Count: 1, AvgAmount: 500},
		{Date: "2024-01-02", TotalAmount: 300, Count: 1, AvgAmount: 300},
	}, result.DailyData)
	assert.Equal(t, int64(800), result.Summary.TotalRevenue)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	ranged, err := query.Query(ctx, "form_1", domain.DateRange{Start: &start})
	require.NoError(t, err)
	require.Len(t, ranged.DailyData, 1)
	assert.Equal(t, int64(300), ranged.Summary.TotalRevenue)
}

func TestQueryEmptyAndInvalid(t *testing.T) {
	repo, _ := setupRepo(t)
	query := NewQueryService(QueryParams{Repo: repo, Log: zap.NewNop()})
	ctx := context.Background()

	result, err := query.Query(ctx, "form_empty", domain.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, result.DailyData)
	assert.NotNil(t, result.Summary.Countries)
	assert.Zero(t, result.Summary.TotalTransactions)

	_, err = query.Query(ctx, "  ", domain.DateRange{})
	assert.ErrorIs(t, err, domain.ErrInvalidFormID)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = query.Query(ctx, "form_1", domain.DateRange{Start: &start, End: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}
