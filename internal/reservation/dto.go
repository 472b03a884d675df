package reservation

import (
	"time"

	errors "github.com/frahmantamala/reservation-management/internal"
	"github.com/frahmantamala/reservation-management/internal/core/common/validation"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/shopspring/decimal"
)

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	if !IsValidStatus(dto.Status) {
		return errors.NewValidationFieldError("status", "unknown reservation status", errors.ErrCodeValidationFailed)
	}
	return nil
}

type UpdatePaymentStatusDTO struct {
	PaymentStatus string `json:"payment_status"`
	// AutoConfirm also moves a pending reservation to confirmed when the
	// payment settles, in the same atomic update.
	AutoConfirm bool `json:"auto_confirm,omitempty"`
}

func (dto UpdatePaymentStatusDTO) Validate() error {
	if !IsValidPaymentStatus(dto.PaymentStatus) {
		return errors.NewValidationFieldError("payment_status", "unknown payment status", errors.ErrCodeValidationFailed)
	}
	return nil
}

// ServiceItemDTO is one ad-hoc line item in loose ingress shape. TotalPrice
// is only honored as an explicit override; otherwise it is recomputed from
// quantity and unit price.
type ServiceItemDTO struct {
	Name       string           `json:"name"`
	Quantity   int              `json:"quantity"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
}

type UpsertServicesDTO struct {
	Services []ServiceItemDTO `json:"services"`
}

func (dto UpsertServicesDTO) Validate() error {
	validator := validation.NewValidator()
	for _, svc := range dto.Services {
		validator.Field("name", svc.Name).Required()
		validator.Field("quantity", int64(svc.Quantity)).NonNegative(errors.ErrCodeInvalidQuantity)
		validator.Field("unit_price", svc.UnitPrice).NonNegative(errors.ErrCodeInvalidAmount)
		if svc.TotalPrice != nil {
			validator.Field("total_price", *svc.TotalPrice).NonNegative(errors.ErrCodeInvalidAmount)
		}
	}
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Normalize converts the loose ingress items into the single tagged shape
// stored on the reservation. This is the only place the conversion happens.
func (dto UpsertServicesDTO) Normalize() reservationDatamodel.AdditionalServices {
	services := make(reservationDatamodel.AdditionalServices, 0, len(dto.Services))
	for _, item := range dto.Services {
		computed := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		svc := reservationDatamodel.AdditionalService{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: computed,
		}
		if item.TotalPrice != nil && !item.TotalPrice.Equal(computed) {
			svc.TotalPrice = *item.TotalPrice
			svc.PricePinned = true
		}
		services = append(services, svc)
	}
	return services
}

type RequestCancellationDTO struct {
	Reason string `json:"reason,omitempty"`
}

type RejectCancellationDTO struct {
	Reason string `json:"reason,omitempty"`
}

type AvailabilityDTO struct {
	PropertyID int64     `json:"property_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
}

func (dto AvailabilityDTO) Validate() error {
	if dto.PropertyID <= 0 {
		return errors.NewValidationFieldError("property_id", "property_id is required", errors.ErrCodeValidationFailed)
	}
	if appErr := validation.ValidateStayDates(dto.CheckIn, dto.CheckOut); appErr != nil {
		return appErr
	}
	return nil
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
