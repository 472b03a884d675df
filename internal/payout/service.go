package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	internal "github.com/frahmantamala/reservation-management/internal"
	payoutDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/payout"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/core/events"
	"github.com/shopspring/decimal"
)

// DefaultCommissionRate applies when no commission setting has ever been
// configured. It lives here, at the payout boundary, so the policy store never
// invents a rate.
var DefaultCommissionRate = decimal.NewFromInt(15)

// RepositoryAPI defines data access for payout records.
type RepositoryAPI interface {
	ListPayableReservations(month, year int) ([]*reservationDatamodel.Reservation, error)
	// ReplaceHostPayment deletes any prior payment (and details) for the same
	// host and period, then inserts the new rows, all in one transaction.
	ReplaceHostPayment(payment *payoutDatamodel.HostPayment, details []*payoutDatamodel.HostPaymentDetail) error
	GetHostPayment(id int64) (*payoutDatamodel.HostPayment, error)
	// GetByPeriod returns nil, nil when the host has no payment for the period.
	GetByPeriod(hostID int64, month, year int) (*payoutDatamodel.HostPayment, error)
	ListHostPayments(limit, offset int) ([]*payoutDatamodel.HostPayment, error)
	ListByHost(hostID int64, limit, offset int) ([]*payoutDatamodel.HostPayment, error)
	GetDetails(hostPaymentID int64) ([]*payoutDatamodel.HostPaymentDetail, error)
	// DeleteStaleUnpaid removes unpaid payments (and their details) for the
	// period whose host is absent from activeHostIDs; paid rows are kept.
	DeleteStaleUnpaid(month, year int, activeHostIDs []int64) (int64, error)
	// MarkPaidCAS flips the row to paid only while it is still in one of
	// fromStatuses; reports whether the swap happened.
	MarkPaidCAS(id int64, fromStatuses []string, method, reference string, paidAt time.Time) (bool, error)
	UpsertAppEarnings(earnings *payoutDatamodel.AppEarnings) error
	SumHostPayments(hostID int64, fromMonth, fromYear, toMonth, toYear int) (*HostStats, error)
	SumAppEarnings(fromMonth, fromYear, toMonth, toYear int) (*AppStats, error)
}

// CommissionAPI is the slice of the commission service the calculator needs.
type CommissionAPI interface {
	GetEffectiveRateForHost(hostID int64) (decimal.Decimal, error)
}

// Service computes and manages monthly host payouts.
type Service struct {
	repo        RepositoryAPI
	commissions CommissionAPI
	eventBus    *events.EventBus
	logger      *slog.Logger

	defaultRate decimal.Decimal

	// periodLocks serializes calculation runs per (month, year); concurrent
	// runs for the same period would otherwise race the full-replace writes.
	periodLocks sync.Map
}

func NewService(repo RepositoryAPI, commissions CommissionAPI, eventBus *events.EventBus, defaultRate decimal.Decimal, logger *slog.Logger) *Service {
	if defaultRate.IsZero() {
		defaultRate = DefaultCommissionRate
	}
	return &Service{
		repo:        repo,
		commissions: commissions,
		eventBus:    eventBus,
		logger:      logger,
		defaultRate: defaultRate,
	}
}

// PreviousPeriod returns the calendar month before now's. Anchoring on the
// first of the current month avoids AddDate's day-of-month normalization,
// which would roll a late-March date back to early March instead of February.
func PreviousPeriod(now time.Time) (month, year int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, -1, 0)
	return int(prev.Month()), prev.Year()
}

func (s *Service) lockPeriod(month, year int) *sync.Mutex {
	key := fmt.Sprintf("%04d-%02d", year, month)
	mu, _ := s.periodLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CalculateHostPayments builds the payout rows for one calendar month. The
// run is idempotent: it fully replaces any prior rows for the period, so
// re-running after a rate change or late reservation produces a consistent
// snapshot. Rows already marked paid are left untouched.
func (s *Service) CalculateHostPayments(month, year int) (*CalculateResponse, error) {
	if appErr := (CalculateDTO{Month: month, Year: year}).Validate(); appErr != nil {
		return nil, appErr
	}

	mu := s.lockPeriod(month, year)
	mu.Lock()
	defer mu.Unlock()

	reservations, err := s.repo.ListPayableReservations(month, year)
	if err != nil {
		s.logger.Error("failed to list payable reservations", "error", err, "month", month, "year", year)
		return nil, internal.NewUpstreamError("failed to list reservations", err)
	}

	byHost := make(map[int64][]*reservationDatamodel.Reservation)
	for _, res := range reservations {
		byHost[res.HostID] = append(byHost[res.HostID], res)
	}

	summary := &CalculateResponse{
		Month:             month,
		Year:              year,
		TotalRevenue:      decimal.Zero,
		TotalCommission:   decimal.Zero,
		TotalHostEarnings: decimal.Zero,
	}

	for hostID, hostReservations := range byHost {
		payment, details, buildErr := s.buildHostPayment(hostID, month, year, hostReservations)
		if buildErr != nil {
			return nil, buildErr
		}

		existing, lookErr := s.repo.GetByPeriod(hostID, month, year)
		if lookErr != nil {
			return nil, internal.NewUpstreamError("failed to look up existing payment", lookErr)
		}
		if existing != nil && existing.PaymentStatus == payoutDatamodel.StatusPaid {
			s.logger.Info("skipping paid payout during recalculation",
				"host_id", hostID, "month", month, "year", year)
			continue
		}

		if err := s.repo.ReplaceHostPayment(payment, details); err != nil {
			s.logger.Error("failed to replace host payment", "error", err, "host_id", hostID)
			return nil, internal.NewUpstreamError("failed to store host payment", err)
		}

		summary.HostsProcessed++
		summary.TotalReservations += payment.TotalReservations
		summary.TotalRevenue = summary.TotalRevenue.Add(payment.TotalRevenue)
		summary.TotalCommission = summary.TotalCommission.Add(payment.CommissionAmount)
		summary.TotalHostEarnings = summary.TotalHostEarnings.Add(payment.HostEarnings)
	}

	// A host that had payable reservations in an earlier run but none now
	// would otherwise keep a stale unpaid row feeding the period aggregate.
	activeHosts := make([]int64, 0, len(byHost))
	for hostID := range byHost {
		activeHosts = append(activeHosts, hostID)
	}
	removed, err := s.repo.DeleteStaleUnpaid(month, year, activeHosts)
	if err != nil {
		s.logger.Error("failed to drop stale payouts", "error", err, "month", month, "year", year)
		return nil, internal.NewUpstreamError("failed to drop stale payouts", err)
	}
	if removed > 0 {
		s.logger.Info("stale unpaid payouts removed", "count", removed, "month", month, "year", year)
	}

	if err := s.recomputeAppEarnings(month, year); err != nil {
		return nil, err
	}

	s.logger.Info("payout calculation completed",
		"month", month,
		"year", year,
		"hosts", summary.HostsProcessed,
		"reservations", summary.TotalReservations,
		"revenue", summary.TotalRevenue.String())

	return summary, nil
}

// buildHostPayment computes one host's payout. Each reservation's split is
// computed first and the parent totals are sums of the detail rows, so the
// parent always equals its details exactly and host earnings plus commission
// equals revenue with no rounding drift.
func (s *Service) buildHostPayment(hostID int64, month, year int, reservations []*reservationDatamodel.Reservation) (*payoutDatamodel.HostPayment, []*payoutDatamodel.HostPaymentDetail, error) {
	rate, err := s.effectiveRate(hostID)
	if err != nil {
		return nil, nil, err
	}

	totalRevenue := decimal.Zero
	totalCommission := decimal.Zero
	totalHost := decimal.Zero

	details := make([]*payoutDatamodel.HostPaymentDetail, 0, len(reservations))
	for _, res := range reservations {
		commission := res.TotalAmount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
		hostAmount := res.TotalAmount.Sub(commission)

		details = append(details, &payoutDatamodel.HostPaymentDetail{
			ReservationID:     res.ID,
			ReservationAmount: res.TotalAmount,
			CommissionAmount:  commission,
			HostAmount:        hostAmount,
		})

		totalRevenue = totalRevenue.Add(res.TotalAmount)
		totalCommission = totalCommission.Add(commission)
		totalHost = totalHost.Add(hostAmount)
	}

	payment := &payoutDatamodel.HostPayment{
		HostID:            hostID,
		Month:             month,
		Year:              year,
		TotalReservations: len(reservations),
		TotalRevenue:      totalRevenue,
		CommissionAmount:  totalCommission,
		HostEarnings:      totalHost,
		PaymentStatus:     payoutDatamodel.StatusPending,
	}

	return payment, details, nil
}

func (s *Service) effectiveRate(hostID int64) (decimal.Decimal, error) {
	rate, err := s.commissions.GetEffectiveRateForHost(hostID)
	if err != nil {
		if errors.Is(err, internal.ErrCommissionNotFound) {
			return s.defaultRate, nil
		}
		s.logger.Error("failed to resolve commission rate", "error", err, "host_id", hostID)
		return decimal.Zero, internal.NewUpstreamError("failed to resolve commission rate", err)
	}
	return rate, nil
}

// recomputeAppEarnings rederives the platform aggregate for the period from
// the stored host payment rows.
func (s *Service) recomputeAppEarnings(month, year int) error {
	stats, err := s.repo.SumAppEarnings(month, year, month, year)
	if err != nil {
		s.logger.Error("failed to sum period earnings", "error", err, "month", month, "year", year)
		return internal.NewUpstreamError("failed to recompute app earnings", err)
	}

	earnings := &payoutDatamodel.AppEarnings{
		Month:             month,
		Year:              year,
		TotalReservations: stats.TotalReservations,
		TotalRevenue:      stats.TotalRevenue,
		TotalCommission:   stats.TotalCommission,
		TotalHostPayments: stats.TotalHostPayments,
		NetEarnings:       stats.TotalCommission,
	}

	if err := s.repo.UpsertAppEarnings(earnings); err != nil {
		s.logger.Error("failed to upsert app earnings", "error", err, "month", month, "year", year)
		return internal.NewUpstreamError("failed to store app earnings", err)
	}
	return nil
}

// MarkPaymentAsPaid finalizes a payout. Only pending or processing rows can
// move; a paid row is immutable.
func (s *Service) MarkPaymentAsPaid(id int64, dto MarkPaidDTO) (*payoutDatamodel.HostPayment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	payment, err := s.repo.GetHostPayment(id)
	if err != nil {
		s.logger.Error("host payment not found", "error", err, "host_payment_id", id)
		return nil, internal.ErrPayoutNotFound
	}

	if payment.PaymentStatus == payoutDatamodel.StatusPaid {
		return nil, internal.ErrPayoutAlreadyPaid
	}
	if payment.PaymentStatus != payoutDatamodel.StatusPending && payment.PaymentStatus != payoutDatamodel.StatusProcessing {
		return nil, internal.NewInvalidStateError("only a pending or processing payout can be marked paid", internal.ErrCodeInvalidTransition)
	}

	paidAt := time.Now()
	swapped, err := s.repo.MarkPaidCAS(id,
		[]string{payoutDatamodel.StatusPending, payoutDatamodel.StatusProcessing},
		dto.PaymentMethod, dto.PaymentReference, paidAt)
	if err != nil {
		s.logger.Error("failed to mark payment as paid", "error", err, "host_payment_id", id)
		return nil, internal.NewUpstreamError("failed to update host payment", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("host payment marked as paid",
		"host_payment_id", id,
		"host_id", payment.HostID,
		"amount", payment.HostEarnings.String(),
		"method", dto.PaymentMethod)

	if s.eventBus != nil {
		event := events.NewPayoutPaidEvent(payment.ID, payment.HostID,
			payment.HostEarnings.String(), dto.PaymentMethod, dto.PaymentReference)
		if err := s.eventBus.Publish(context.Background(), event); err != nil {
			s.logger.Error("failed to publish payout event", "error", err)
		}
	}

	return s.repo.GetHostPayment(id)
}

func (s *Service) GetHostPayment(id int64) (*payoutDatamodel.HostPayment, error) {
	payment, err := s.repo.GetHostPayment(id)
	if err != nil {
		s.logger.Error("host payment not found", "error", err, "host_payment_id", id)
		return nil, internal.ErrPayoutNotFound
	}
	return payment, nil
}

func (s *Service) ListHostPayments(limit, offset int) ([]*payoutDatamodel.HostPayment, error) {
	return s.repo.ListHostPayments(limit, offset)
}

func (s *Service) ListByHost(hostID int64, limit, offset int) ([]*payoutDatamodel.HostPayment, error) {
	return s.repo.ListByHost(hostID, limit, offset)
}

func (s *Service) GetDetails(hostPaymentID int64) ([]*payoutDatamodel.HostPaymentDetail, error) {
	if _, err := s.repo.GetHostPayment(hostPaymentID); err != nil {
		return nil, internal.ErrPayoutNotFound
	}
	return s.repo.GetDetails(hostPaymentID)
}

// GetHostStats aggregates one host's payouts across a period range. Hosts
// with no payout rows get a zeroed aggregate, not an error.
func (s *Service) GetHostStats(hostID int64, fromMonth, fromYear, toMonth, toYear int) (*HostStats, error) {
	stats, err := s.repo.SumHostPayments(hostID, fromMonth, fromYear, toMonth, toYear)
	if err != nil {
		s.logger.Error("failed to aggregate host stats", "error", err, "host_id", hostID)
		return nil, internal.NewUpstreamError("failed to aggregate host stats", err)
	}
	if stats == nil {
		return ZeroHostStats(hostID), nil
	}
	stats.HostID = hostID
	return stats, nil
}

// GetAppStats aggregates platform earnings across a period range.
func (s *Service) GetAppStats(fromMonth, fromYear, toMonth, toYear int) (*AppStats, error) {
	stats, err := s.repo.SumAppEarnings(fromMonth, fromYear, toMonth, toYear)
	if err != nil {
		s.logger.Error("failed to aggregate app stats", "error", err)
		return nil, internal.NewUpstreamError("failed to aggregate app stats", err)
	}
	if stats == nil {
		return ZeroAppStats(), nil
	}
	return stats, nil
}
