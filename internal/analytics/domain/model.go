package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"gorm.io/datatypes"
)

// Record is the durable analytics row written once per provider payment id.
type Record struct {
	ID                snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FormID            string            `gorm:"type:varchar(64);not null;index:idx_payment_analytics_form_date,priority:1" json:"formId"`
	Date              time.Time         `gorm:"not null;index:idx_payment_analytics_form_date,priority:2" json:"date"`
	Amount            int64             `gorm:"not null" json:"amount"`
	Currency          string            `gorm:"type:varchar(3);not null" json:"currency"`
	Status            string            `gorm:"type:varchar(16);not null" json:"status"`
	Country           string            `gorm:"type:varchar(2)" json:"country,omitempty"`
	PaymentMethod     string            `gorm:"type:varchar(64)" json:"paymentMethod,omitempty"`
	CustomerEmail     string            `gorm:"type:varchar(320)" json:"customerEmail"`
	ProviderPaymentID string            `gorm:"type:varchar(255);not null;uniqueIndex:ux_payment_analytics_provider_payment_id" json:"providerPaymentId"`
	ProviderEventID   string            `gorm:"type:varchar(255)" json:"providerEventId"`
	Metadata          datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"not null" json:"createdAt"`
}

func (Record) TableName() string { return "payment_analytics" }

// RecordOutcome reports what the recorder did with an event.
type RecordOutcome string

const (
	Recorded        RecordOutcome = "recorded"
	AlreadyRecorded RecordOutcome = "already_recorded"
)

// DateRange bounds a query. Nil bounds are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type DailyBucket struct {
	Date        string  `json:"date"`
	TotalAmount int64   `json:"totalAmount"`
	Count       int64   `json:"count"`
	AvgAmount   float64 `json:"avgAmount"`
}

type Summary struct {
	TotalRevenue        int64    `json:"totalRevenue"`
	TotalTransactions   int64    `json:"totalTransactions"`
	AvgTransactionValue float64  `json:"avgTransactionValue"`
	Countries           []string `json:"countries"`
	PaymentMethods      []string `json:"paymentMethods"`
}

type QueryResult struct {
	DailyData []DailyBucket `json:"dailyData"`
	Summary   Summary       `json:"summary"`
}

// Repository persists analytics records. Insert must return ErrDuplicateKey
// when a record with the same provider payment id already exists.
type Repository interface {
	Insert(ctx context.Context, record *Record) error
	FindByProviderPaymentID(ctx context.Context, providerPaymentID string) (*Record, error)
	ListSucceeded(ctx context.Context, formID string, dateRange DateRange) ([]Record, error)
}

// Recorder persists one record per successful payment, idempotently.
type Recorder interface {
	Record(ctx context.Context, event paymentdomain.PaymentEvent) (RecordOutcome, error)
}

// QueryService serves daily rollups for a form.
type QueryService interface {
	Query(ctx context.Context, formID string, dateRange DateRange) (QueryResult, error)
}
