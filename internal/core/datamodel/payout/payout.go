package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
	StatusFailed     = "failed"
)

// HostPayment is the monthly payout record for one host. Produced and
// overwritten exclusively by the payout calculation run; immutable once paid.
type HostPayment struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	HostID            int64           `json:"host_id" gorm:"column:host_id;not null;index:idx_host_period,unique,priority:1"`
	Month             int             `json:"month" gorm:"column:month;not null;index:idx_host_period,unique,priority:2"`
	Year              int             `json:"year" gorm:"column:year;not null;index:idx_host_period,unique,priority:3"`
	TotalReservations int             `json:"total_reservations" gorm:"column:total_reservations;not null"`
	TotalRevenue      decimal.Decimal `json:"total_revenue" gorm:"column:total_revenue;type:numeric(14,2);not null"`
	CommissionAmount  decimal.Decimal `json:"commission_amount" gorm:"column:commission_amount;type:numeric(14,2);not null"`
	HostEarnings      decimal.Decimal `json:"host_earnings" gorm:"column:host_earnings;type:numeric(14,2);not null"`
	PaymentStatus     string          `json:"payment_status" gorm:"column:payment_status;default:pending"`
	PaymentMethod     *string         `json:"payment_method,omitempty" gorm:"column:payment_method"`
	PaymentReference  *string         `json:"payment_reference,omitempty" gorm:"column:payment_reference"`
	PaidAt            *time.Time      `json:"paid_at,omitempty" gorm:"column:paid_at"`
	CreatedAt         time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (HostPayment) TableName() string {
	return "host_payments"
}

// HostPaymentDetail links one included reservation to its payout split.
// host_amount + commission_amount always equals reservation_amount.
type HostPaymentDetail struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	HostPaymentID     int64           `json:"host_payment_id" gorm:"column:host_payment_id;not null;index"`
	ReservationID     int64           `json:"reservation_id" gorm:"column:reservation_id;not null"`
	ReservationAmount decimal.Decimal `json:"reservation_amount" gorm:"column:reservation_amount;type:numeric(14,2);not null"`
	CommissionAmount  decimal.Decimal `json:"commission_amount" gorm:"column:commission_amount;type:numeric(14,2);not null"`
	HostAmount        decimal.Decimal `json:"host_amount" gorm:"column:host_amount;type:numeric(14,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (HostPaymentDetail) TableName() string {
	return "host_payment_details"
}

// AppEarnings is the platform-wide aggregate for one period, derived entirely
// from HostPayment rows and recomputed, never edited directly.
type AppEarnings struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	Month             int             `json:"month" gorm:"column:month;not null;index:idx_app_period,unique,priority:1"`
	Year              int             `json:"year" gorm:"column:year;not null;index:idx_app_period,unique,priority:2"`
	TotalReservations int             `json:"total_reservations" gorm:"column:total_reservations;not null"`
	TotalRevenue      decimal.Decimal `json:"total_revenue" gorm:"column:total_revenue;type:numeric(14,2);not null"`
	TotalCommission   decimal.Decimal `json:"total_commission" gorm:"column:total_commission;type:numeric(14,2);not null"`
	TotalHostPayments decimal.Decimal `json:"total_host_payments" gorm:"column:total_host_payments;type:numeric(14,2);not null"`
	NetEarnings       decimal.Decimal `json:"net_earnings" gorm:"column:net_earnings;type:numeric(14,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (AppEarnings) TableName() string {
	return "app_earnings"
}
