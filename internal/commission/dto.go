package commission

import (
	"github.com/frahmantamala/reservation-management/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// UpdateRateDTO is the payload for replacing the active commission rate.
type UpdateRateDTO struct {
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

func (dto UpdateRateDTO) Validate() error {
	if appErr := validation.ValidateCommissionPercentage(dto.CommissionPercentage); appErr != nil {
		return appErr
	}
	return nil
}

type RateResponse struct {
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}
