package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/formpay/internal/analytics/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/pkg/db"
	"gorm.io/gorm"
)

type gormRepo struct {
	db *gorm.DB
}

// NewGorm stores records in the payment_analytics table. The unique index on
// provider_payment_id is what makes Insert idempotent.
func NewGorm(conn *gorm.DB) domain.Repository {
	return &gormRepo{db: conn}
}

func (r *gormRepo) Insert(ctx context.Context, record *domain.Record) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return nil
	}
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateKey
	}
	return fmt.Errorf("insert analytics record: %w", err)
}

func (r *gormRepo) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.Record, error) {
	var record domain.Record
	err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerPaymentID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormRepo) ListSucceeded(ctx context.Context, formID string, dateRange domain.DateRange) ([]domain.Record, error) {
	query := r.db.WithContext(ctx).
		Where("form_id = ? AND status = ?", formID, string(paymentdomain.EventKindSucceeded))
	if dateRange.Start != nil {
		query = query.Where("date >= ?", dateRange.Start.UTC())
	}
	if dateRange.End != nil {
		query = query.Where("date <= ?", dateRange.End.UTC())
	}

	var records []domain.Record
	if err := query.Order("date ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
