package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
)

// ErrNotifyFailed wraps any render or transport failure. It is never fatal
// to webhook processing.
var ErrNotifyFailed = errors.New("notify_failed")

type NotifyOutcome string

const (
	Sent    NotifyOutcome = "sent"
	Skipped NotifyOutcome = "skipped"
	Failed  NotifyOutcome = "failed"
)

// Notifier renders and dispatches a payment confirmation.
type Notifier interface {
	Notify(ctx context.Context, event paymentdomain.PaymentEvent) (NotifyOutcome, error)
}

// LineItem is one row of the receipt body.
type LineItem struct {
	Name        string
	Description string
}

// TemplateData is the fixed contract handed to the receipt template.
type TemplateData struct {
	FormTitle    string
	Amount       string
	PaymentID    string
	Date         string
	Items        []LineItem
	SenderName   string
	SupportEmail string
	FooterNote   string
}

// Delivery is one notification attempt. It is an audit trail only and
// never gates recording.
type Delivery struct {
	ID                snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ProviderPaymentID string       `gorm:"type:varchar(255);not null;index" json:"providerPaymentId"`
	FormID            string       `gorm:"type:varchar(64)" json:"formId"`
	Recipient         string       `gorm:"type:varchar(320)" json:"recipient"`
	Status            string       `gorm:"type:varchar(16);not null" json:"status"`
	Error             string       `gorm:"type:text" json:"error,omitempty"`
	CreatedAt         time.Time    `gorm:"not null" json:"createdAt"`
}

func (Delivery) TableName() string { return "receipt_deliveries" }

type DeliveryRepository interface {
	Insert(ctx context.Context, delivery *Delivery) error
	ListByPaymentID(ctx context.Context, providerPaymentID string) ([]Delivery, error)
}
