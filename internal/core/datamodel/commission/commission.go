package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionSetting is an append-only history of platform commission rates.
// At most one row is active at any time; past rates are never mutated.
type CommissionSetting struct {
	ID                   int64           `json:"id" gorm:"primaryKey"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage" gorm:"column:commission_percentage;type:numeric(5,2);not null"`
	IsActive             bool            `json:"is_active" gorm:"column:is_active;default:false"`
	CreatedAt            time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (CommissionSetting) TableName() string {
	return "commission_settings"
}

// HostProfile carries the optional per-host commission override. The profile
// itself is owned by the accounts subsystem; the core only reads the rate.
type HostProfile struct {
	ID             int64            `json:"id" gorm:"primaryKey"`
	UserID         int64            `json:"user_id" gorm:"column:user_id;not null;uniqueIndex"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty" gorm:"column:commission_rate;type:numeric(5,2)"`
	CreatedAt      time.Time        `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (HostProfile) TableName() string {
	return "host_profiles"
}
