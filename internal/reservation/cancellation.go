package reservation

import (
	"context"
	"time"

	internal "github.com/frahmantamala/reservation-management/internal"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/core/events"
)

// RequestCancellation moves a pending or confirmed reservation into
// pending_cancellation so an admin reviews it before any refund. Admin
// notification fan-out runs on the event bus and never blocks the transition.
func (s *Service) RequestCancellation(reservationID int64, dto RequestCancellationDTO) (*reservationDatamodel.Reservation, error) {
	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for cancellation request", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	if res.Status != StatusPending && res.Status != StatusConfirmed {
		s.logger.Warn("cancellation request from invalid state",
			"reservation_id", reservationID,
			"status", res.Status)
		return nil, internal.NewInvalidStateError("cancellation can only be requested for pending or confirmed reservations", internal.ErrCodeInvalidTransition)
	}

	updates := map[string]interface{}{
		"status":              StatusPendingCancellation,
		"cancellation_reason": dto.Reason,
		"updated_at":          time.Now(),
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{StatusPending, StatusConfirmed}, updates)
	if err != nil {
		s.logger.Error("failed to request cancellation", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("cancellation requested",
		"reservation_id", reservationID,
		"guest_id", res.GuestID,
		"reason", dto.Reason)

	s.publish(events.NewCancellationRequestedEvent(res.ID, res.GuestID, res.HostID, dto.Reason))

	return s.repo.GetByID(reservationID)
}

// ApproveCancellation releases the reservation: cancelled, refunded, stamped.
func (s *Service) ApproveCancellation(reservationID, adminID int64) (*reservationDatamodel.Reservation, error) {
	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for cancellation approval", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	if res.Status != StatusPendingCancellation {
		s.logger.Warn("cancellation approval from invalid state",
			"reservation_id", reservationID,
			"status", res.Status)
		return nil, internal.NewInvalidStateError("only a pending cancellation can be approved", internal.ErrCodeInvalidTransition)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         StatusCancelled,
		"payment_status": PaymentRefunded,
		"cancelled_at":   now,
		"updated_at":     now,
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{StatusPendingCancellation}, updates)
	if err != nil {
		s.logger.Error("failed to approve cancellation", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("cancellation approved",
		"reservation_id", reservationID,
		"admin_id", adminID,
		"guest_id", res.GuestID)

	s.publish(events.NewCancellationApprovedEvent(res.ID, res.GuestID, adminID))

	return s.repo.GetByID(reservationID)
}

// RejectCancellation restores the reservation to confirmed when its payment
// already settled, otherwise back to pending, and clears the stored reason.
func (s *Service) RejectCancellation(reservationID, adminID int64, dto RejectCancellationDTO) (*reservationDatamodel.Reservation, error) {
	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for cancellation rejection", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	if res.Status != StatusPendingCancellation {
		s.logger.Warn("cancellation rejection from invalid state",
			"reservation_id", reservationID,
			"status", res.Status)
		return nil, internal.NewInvalidStateError("only a pending cancellation can be rejected", internal.ErrCodeInvalidTransition)
	}

	restored := StatusPending
	if res.PaymentStatus == PaymentPaid {
		restored = StatusConfirmed
	}

	updates := map[string]interface{}{
		"status":              restored,
		"cancellation_reason": nil,
		"updated_at":          time.Now(),
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{StatusPendingCancellation}, updates)
	if err != nil {
		s.logger.Error("failed to reject cancellation", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("cancellation rejected",
		"reservation_id", reservationID,
		"admin_id", adminID,
		"restored_status", restored,
		"reason", dto.Reason)

	s.publish(events.NewCancellationRejectedEvent(res.ID, res.GuestID, adminID, dto.Reason))

	return s.repo.GetByID(reservationID)
}

// Confirm is the host accepting a pending reservation. The observed booking
// flow settles payment at the same moment.
func (s *Service) Confirm(reservationID, hostID int64) (*reservationDatamodel.Reservation, error) {
	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for confirmation", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	if res.Status != StatusPending {
		return nil, internal.NewInvalidStateError("only a pending reservation can be confirmed", internal.ErrCodeInvalidTransition)
	}

	updates := map[string]interface{}{
		"status":         StatusConfirmed,
		"payment_status": PaymentPaid,
		"updated_at":     time.Now(),
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{StatusPending}, updates)
	if err != nil {
		s.logger.Error("failed to confirm reservation", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("reservation confirmed by host",
		"reservation_id", reservationID,
		"host_id", hostID)

	s.publish(events.NewReservationConfirmedEvent(res.ID, res.GuestID, hostID))

	return s.repo.GetByID(reservationID)
}

// Refuse is the host declining a pending reservation. Payment state is left
// as-is; there is no refund guarantee on this path.
func (s *Service) Refuse(reservationID, hostID int64) (*reservationDatamodel.Reservation, error) {
	res, err := s.repo.GetByID(reservationID)
	if err != nil {
		s.logger.Error("reservation not found for refusal", "error", err, "reservation_id", reservationID)
		return nil, internal.ErrReservationNotFound
	}

	if res.Status != StatusPending {
		return nil, internal.NewInvalidStateError("only a pending reservation can be refused", internal.ErrCodeInvalidTransition)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       StatusCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	}

	swapped, err := s.repo.UpdateCAS(reservationID, []string{StatusPending}, updates)
	if err != nil {
		s.logger.Error("failed to refuse reservation", "error", err, "reservation_id", reservationID)
		return nil, internal.NewUpstreamError("failed to update reservation", err)
	}
	if !swapped {
		return nil, internal.ErrTransitionConflict
	}

	s.logger.Info("reservation refused by host",
		"reservation_id", reservationID,
		"host_id", hostID)

	s.publish(events.NewReservationRefusedEvent(res.ID, res.GuestID, hostID))

	return s.repo.GetByID(reservationID)
}

// publish fans an event out asynchronously; a missing bus or handler failure
// only ever costs a notification, never the transition.
func (s *Service) publish(event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}
