package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type backend struct {
	name string
	open func(t *testing.T) domain.Repository
}

func backends() []backend {
	return []backend{
		{name: "gorm", open: openGorm},
		{name: "bolt", open: openBolt},
	}
}

func openGorm(t *testing.T) domain.Repository {
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
	return NewGorm(conn)
}

func openBolt(t *testing.T) domain.Repository {
	t.Helper()
	store, err := OpenBolt(filepath.Join(t.TempDir(), "analytics", "records.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewBolt(store)
}

var node = func() *snowflake.Node {
	n, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return n
}()

func newRecord(formID, paymentID string, amount int64, at time.Time) *domain.Record {
	return &domain.Record{
		ID:                node.Generate(),
		FormID:            formID,
		Date:              at.UTC(),
		Amount:            amount,
		Currency:          "usd",
		Status:            "succeeded",
		CustomerEmail:     "payer@example.com",
		ProviderPaymentID: paymentID,
		ProviderEventID:   "evt_" + paymentID,
		CreatedAt:         at.UTC(),
	}
}

func TestInsertRejectsDuplicatePaymentID(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.open(t)
			ctx := context.Background()
			at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

			require.NoError(t, repo.Insert(ctx, newRecord("form_1", "pi_1", 500, at)))
			err := repo.Insert(ctx, newRecord("form_1", "pi_1", 500, at))
			require.ErrorIs(t, err, domain.ErrDuplicateKey)

			records, err := repo.ListSucceeded(ctx, "form_1", domain.DateRange{})
			require.NoError(t, err)
			assert.Len(t, records, 1)
		})
	}
}

func TestConcurrentDuplicateInsertsStoreOneRecord(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.open(t)
			ctx := context.Background()
			at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

			const workers = 8
			var (
				wg         sync.WaitGroup
				mu         sync.Mutex
				inserted   int
				duplicates int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := repo.Insert(ctx, newRecord("form_1", "pi_race", 500, at))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						inserted++
					case errors.Is(err, domain.ErrDuplicateKey):
						duplicates++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, inserted)
			assert.Equal(t, workers-1, duplicates)
		})
	}
}

func TestFindByProviderPaymentID(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.open(t)
			ctx := context.Background()
			at := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)

			rec := newRecord("form_1", "pi_find", 1250, at)
			rec.Country = "US"
			require.NoError(t, repo.Insert(ctx, rec))

			got, err := repo.FindByProviderPaymentID(ctx, "pi_find")
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, int64(1250), got.Amount)
			assert.Equal(t, "US", got.Country)
			assert.True(t, at.Equal(got.Date))

			_, err = repo.FindByProviderPaymentID(ctx, "pi_missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestListSucceededFiltersFormStatusAndRange(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo := b.open(t)
			ctx := context.Background()

			for i := 1; i <= 5; i++ {
				at := time.Date(2024, 1, i, 12, 0, 0, 0, time.UTC)
				require.NoError(t, repo.Insert(ctx, newRecord("form_1", fmt.Sprintf("pi_%d", i), int64(i*100), at)))
			}
			failed := newRecord("form_1", "pi_failed", 999, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))
			failed.Status = "failed"
			require.NoError(t, repo.Insert(ctx, failed))
			// A form id that shares a prefix must not leak into the scan.
			require.NoError(t, repo.Insert(ctx, newRecord("form_10", "pi_other", 700, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))))

			all, err := repo.ListSucceeded(ctx, "form_1", domain.DateRange{})
			require.NoError(t, err)
			assert.Len(t, all, 5)

			start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
			end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)
			ranged, err := repo.ListSucceeded(ctx, "form_1", domain.DateRange{Start: &start, End: &end})
			require.NoError(t, err)
			require.Len(t, ranged, 3)
			for _, r := range ranged {
				assert.Equal(t, "form_1", r.FormID)
				assert.Equal(t, "succeeded", r.Status)
			}

			fromOnly, err := repo.ListSucceeded(ctx, "form_1", domain.DateRange{Start: &end})
			require.NoError(t, err)
			assert.Len(t, fromOnly, 1)

			none, err := repo.ListSucceeded(ctx, "form_missing", domain.DateRange{})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}
