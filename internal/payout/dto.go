package payout

import (
	errors "github.com/frahmantamala/reservation-management/internal"
	"github.com/frahmantamala/reservation-management/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

type CalculateDTO struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (dto CalculateDTO) Validate() error {
	if appErr := validation.ValidatePayoutPeriod(dto.Month, dto.Year); appErr != nil {
		return appErr
	}
	return nil
}

type MarkPaidDTO struct {
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference"`
}

func (dto MarkPaidDTO) Validate() error {
	if dto.PaymentMethod == "" {
		return errors.NewValidationFieldError("payment_method", "payment_method is required", errors.ErrCodeValidationFailed)
	}
	if dto.PaymentReference == "" {
		return errors.NewValidationFieldError("payment_reference", "payment_reference is required", errors.ErrCodeMissingPayoutRef)
	}
	return nil
}

// CalculateResponse summarizes one payout run.
type CalculateResponse struct {
	Month             int             `json:"month"`
	Year              int             `json:"year"`
	HostsProcessed    int             `json:"hosts_processed"`
	TotalReservations int             `json:"total_reservations"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	TotalHostEarnings decimal.Decimal `json:"total_host_earnings"`
}

// HostStats aggregates a host's payout rows over a period range.
type HostStats struct {
	HostID            int64           `json:"host_id"`
	TotalPayments     int             `json:"total_payments"`
	TotalReservations int             `json:"total_reservations"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
	PendingAmount     decimal.Decimal `json:"pending_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
}

// AppStats aggregates platform earnings over a period range.
type AppStats struct {
	TotalReservations int             `json:"total_reservations"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	TotalHostPayments decimal.Decimal `json:"total_host_payments"`
	NetEarnings       decimal.Decimal `json:"net_earnings"`
}

// ZeroHostStats returns the zeroed aggregate for a host with no payout rows.
func ZeroHostStats(hostID int64) *HostStats {
	return &HostStats{
		HostID:          hostID,
		TotalRevenue:    decimal.Zero,
		TotalCommission: decimal.Zero,
		TotalEarnings:   decimal.Zero,
		PendingAmount:   decimal.Zero,
		PaidAmount:      decimal.Zero,
	}
}

// ZeroAppStats returns the zeroed platform aggregate.
func ZeroAppStats() *AppStats {
	return &AppStats{
		TotalRevenue:      decimal.Zero,
		TotalCommission:   decimal.Zero,
		TotalHostPayments: decimal.Zero,
		NetEarnings:       decimal.Zero,
	}
}
