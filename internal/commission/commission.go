package commission

import (
	commissionDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/commission"
	"github.com/shopspring/decimal"
)

// Setting is the domain view of one commission rate revision.
type Setting struct {
	ID                   int64           `json:"id"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	IsActive             bool            `json:"is_active"`
}

func FromDataModel(s *commissionDatamodel.CommissionSetting) *Setting {
	return &Setting{
		ID:                   s.ID,
		CommissionPercentage: s.CommissionPercentage,
		IsActive:             s.IsActive,
	}
}

func FromDataModelSlice(settings []*commissionDatamodel.CommissionSetting) []*Setting {
	result := make([]*Setting, len(settings))
	for i, s := range settings {
		result[i] = FromDataModel(s)
	}
	return result
}
