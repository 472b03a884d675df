package reservation

import (
	"log/slog"
	"time"

	internal "github.com/frahmantamala/reservation-management/internal"
	"github.com/frahmantamala/reservation-management/internal/core/common/validation"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/core/events"
	"github.com/shopspring/decimal"
)

// RepositoryAPI defines data access for the reservation ledger.
type RepositoryAPI interface {
	GetByID(id int64) (*reservationDatamodel.Reservation, error)
	GetByIDs(ids []int64) ([]*reservationDatamodel.Reservation, error)
	ListByHost(hostID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error)
	ListByGuest(guestID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error)
	ListByProperty(propertyID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error)
	// UpdateCAS applies updates only while the reservation still sits in one
	// of fromStatuses; the swap fails when a concurrent transition won.
	UpdateCAS(id int64, fromStatuses []string, updates map[string]interface{}) (bool, error)
	ReplaceServices(id int64, services reservationDatamodel.AdditionalServices, totalAmount decimal.Decimal) error
	CountOverlapping(propertyID int64, checkIn, checkOut time.Time) (int64, error)
	DeleteExpired(today time.Time) (int64, error)
}

// Service handles reservation ledger mutations and the cancellation workflow.
type Service struct {
	repo     RepositoryAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *Service) GetByID(id int64) (*reservationDatamodel.Reservation, error) {
	res, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get reservation", "error", err, "reservation_id", id)
		return nil, internal.ErrReservationNotFound
	}
	return res, nil
}

func (s *Service) ListByHost(hostID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	reservations, err := s.repo.ListByHost(hostID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list host reservations", "error", err, "host_id", hostID)
		return nil, err
	}
	return reservations, nil
}

func (s *Service) ListByGuest(guestID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	reservations, err := s.repo.ListByGuest(guestID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list guest reservations", "error", err, "guest_id", guestID)
		return nil, err
	}
	return reservations, nil
}

func (s *Service) ListByProperty(propertyID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	reservations, err := s.repo.ListByProperty(propertyID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list property reservations", "error", err, "property_id", propertyID)
		return nil, err
	}
	return reservations, nil
}

// UpdateStatus applies one lifecycle transition, guarded by the state machine
// and a compare-and-swap on the current status.
func (s *Service) UpdateStatus(reservationID int64, dto UpdateStatusDTO) (*reservationDatamodel.Reservation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for status update", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	if !CanTransition(res.Status, dto.Status) {
		s.logger.Warn("disallowed status transition",
			"reservation_id", reservationID,
			"from", res.Status,
			"to", dto.Status)
		return nil, internal.ErrInvalidTransition
	}

	updates := map[string]interface{}{
		"status":     dto.Status,
		"updated_at": time.Now(),
	}
	if dto.Status == StatusCancelled {
		updates["cancelled_at"] = time.Now()
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{res.Status}, updates)
	if err != nil {
		s.logger.Error("failed to update reservation status", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		s.logger.Warn("status transition lost the race", "reservation_id", reservationID, "to", dto.Status)
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("reservation status updated",
		"reservation_id", reservationID,
		"from", res.Status,
		"to", dto.Status)

	return s.repo.GetByID(reservationID)
}

// UpdatePaymentStatus records the gateway settlement outcome. With
// autoConfirm a settling payment also confirms a pending reservation in the
// same atomic update.
func (s *Service) UpdatePaymentStatus(reservationID int64, dto UpdatePaymentStatusDTO) (*reservationDatamodel.Reservation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for payment update", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	updates := map[string]interface{}{
		"payment_status": dto.PaymentStatus,
		"updated_at":     time.Now(),
	}

	if dto.AutoConfirm && dto.PaymentStatus == PaymentPaid && res.Status == StatusPending {
		updates["status"] = StatusConfirmed
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{res.Status}, updates)
	if err != nil {
		s.logger.Error("failed to update payment status", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("reservation payment status updated",
		"reservation_id", reservationID,
		"payment_status", dto.PaymentStatus,
		"auto_confirm", dto.AutoConfirm)

	return s.repo.GetByID(reservationID)
}

// UpsertAdditionalServices replaces the ad-hoc line items and recomputes the
// reservation total from its base amount.
func (s *Service) UpsertAdditionalServices(reservationID int64, dto UpsertServicesDTO) (*reservationDatamodel.Reservation, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("additional services validation failed", "error", err, "reservation_id", reservationID)
		return nil, err
	}

	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for services update", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	services := dto.Normalize()

	total := res.BaseAmount.Add(services.Sum())
	if total.IsNegative() {
		total = decimal.Zero
	}

	if err := s.repo.ReplaceServices(reservationID, services, total); err != nil {
		s.logger.Error("failed to replace additional services", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation services", err)
	}

	s.logger.Info("additional services updated",
		"reservation_id", reservationID,
		"service_count", len(services),
		"total_amount", total.String())

	return s.repo.GetByID(reservationID)
}

// CheckAvailability reports whether the stay interval is free of pending or
// confirmed reservations. Intervals are half-open: back-to-back stays where
// one check-out equals the next check-in do not collide.
func (s *Service) CheckAvailability(dto AvailabilityDTO) (bool, error) {
	if err := dto.Validate(); err != nil {
		return false, err
	}

	count, err := s.repo.CountOverlapping(dto.PropertyID, dto.CheckIn, dto.CheckOut)
	if err != nil {
		s.logger.Error("availability check failed", "error", err, "property_id", dto.PropertyID)
		return false, internal.NewUpstreamError("availability check failed", err)
	}

	return count == 0, nil
}

// CleanupExpired purges dead reservations: anything past its check-out that
// either never got confirmed or has already fully settled. Safe to re-run.
func (s *Service) CleanupExpired(today time.Time) (int64, error) {
	if today.IsZero() {
		today = time.Now()
	}

	deleted, err := s.repo.DeleteExpired(today)
	if err != nil {
		s.logger.Error("expired reservation cleanup failed", "error", err)
		return 0, internal.NewUpstreamError("cleanup failed", err)
	}

	s.logger.Info("expired reservations cleaned up", "deleted", deleted, "as_of", today.Format("2006-01-02"))
	return deleted, nil
}

// ValidateStay re-exposes the date invariant for callers at the ingress
// boundary.
func ValidateStay(checkIn, checkOut time.Time) error {
	if appErr := validation.ValidateStayDates(checkIn, checkOut); appErr != nil {
		return appErr
	}
	return nil
}
