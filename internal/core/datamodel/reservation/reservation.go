package reservation

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AdditionalService is a normalized ad-hoc line item on a reservation.
// Legacy records carried these in loose shapes; normalization happens once at
// the ingress boundary and never downstream.
type AdditionalService struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	// PricePinned keeps an explicitly overridden total_price through
	// recomputation. Quantity or unit price edits clear it.
	PricePinned bool `json:"price_pinned,omitempty"`
}

type AdditionalServices []AdditionalService

func (s AdditionalServices) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *AdditionalServices) Scan(value interface{}) error {
	if value == nil {
		*s = AdditionalServices{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for additional services")
	}
	if len(raw) == 0 {
		*s = AdditionalServices{}
		return nil
	}
	return json.Unmarshal(raw, s)
}

// Sum returns the total of all line item totals.
func (s AdditionalServices) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, svc := range s {
		total = total.Add(svc.TotalPrice)
	}
	return total
}

type Reservation struct {
	ID                 int64              `json:"id" gorm:"primaryKey"`
	PropertyID         int64              `json:"property_id" gorm:"column:property_id;not null"`
	GuestID            int64              `json:"guest_id" gorm:"column:guest_id;not null"`
	HostID             int64              `json:"host_id" gorm:"column:host_id;not null"`
	CheckIn            time.Time          `json:"check_in" gorm:"column:check_in;type:date;not null"`
	CheckOut           time.Time          `json:"check_out" gorm:"column:check_out;type:date;not null"`
	Adults             int                `json:"adults" gorm:"column:adults;default:1"`
	Children           int                `json:"children" gorm:"column:children;default:0"`
	Infants            int                `json:"infants" gorm:"column:infants;default:0"`
	Pets               int                `json:"pets" gorm:"column:pets;default:0"`
	BaseAmount         decimal.Decimal    `json:"base_amount" gorm:"column:base_amount;type:numeric(14,2);not null"`
	AdditionalServices AdditionalServices `json:"additional_services" gorm:"column:additional_services;type:jsonb"`
	TotalAmount        decimal.Decimal    `json:"total_amount" gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status             string             `json:"status" gorm:"column:status;default:pending"`
	PaymentStatus      string             `json:"payment_status" gorm:"column:payment_status;default:pending"`
	CancellationReason *string            `json:"cancellation_reason,omitempty" gorm:"column:cancellation_reason"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty" gorm:"column:cancelled_at"`
	CreatedAt          time.Time          `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Reservation) TableName() string {
	return "reservations"
}
