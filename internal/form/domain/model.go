package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("form_not_found")

// Form is the subset of a form definition the payment pipeline reads.
// Forms are owned by the builder; this module never writes them.
type Form struct {
	ID                 string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Title              string    `gorm:"type:varchar(255);not null" json:"title"`
	PaymentRequired    bool      `gorm:"not null;default:false" json:"paymentRequired"`
	PaymentAmount      int64     `json:"paymentAmount"`
	PaymentCurrency    string    `gorm:"type:varchar(3)" json:"paymentCurrency"`
	PaymentDescription string    `gorm:"type:text" json:"paymentDescription"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (Form) TableName() string { return "forms" }

// Repository looks forms up by id.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Form, error)
}
