package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/formpay/internal/form/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) FindByID(ctx context.Context, id string) (*domain.Form, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrNotFound
	}
	var form domain.Form
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}
