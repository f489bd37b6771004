package repository

import (
	"context"

	"github.com/smallbiznis/formpay/internal/receipt/domain"
	"gorm.io/gorm"
)

type deliveryRepo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.DeliveryRepository {
	return &deliveryRepo{db: db}
}

func (r *deliveryRepo) Insert(ctx context.Context, delivery *domain.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *deliveryRepo) ListByPaymentID(ctx context.Context, providerPaymentID string) ([]domain.Delivery, error) {
	var out []domain.Delivery
	err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerPaymentID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
