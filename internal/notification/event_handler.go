package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/reservation-management/internal/core/events"
)

// EventHandler bridges domain events to outbound notifications. Every handler
// is best-effort: a failed lookup or send is logged and dropped so the
// originating transition is never rolled back over a notification.
type EventHandler struct {
	notifier  Notifier
	directory DirectoryAPI
	logger    *slog.Logger
}

func NewEventHandler(notifier Notifier, directory DirectoryAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier:  notifier,
		directory: directory,
		logger:    logger,
	}
}

// RegisterHandlers subscribes to every reservation and payout event.
func (h *EventHandler) RegisterHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeCancellationRequested, h.handleCancellationRequested)
	bus.Subscribe(events.EventTypeCancellationApproved, h.handleCancellationDecided)
	bus.Subscribe(events.EventTypeCancellationRejected, h.handleCancellationDecided)
	bus.Subscribe(events.EventTypeReservationConfirmed, h.handleReservationDecided)
	bus.Subscribe(events.EventTypeReservationRefused, h.handleReservationDecided)
	bus.Subscribe(events.EventTypePayoutPaid, h.handlePayoutPaid)
}

// handleCancellationRequested notifies every admin that a review is waiting.
func (h *EventHandler) handleCancellationRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CancellationRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	adminIDs, err := h.directory.AdminIDs()
	if err != nil {
		h.logger.Error("failed to resolve admin recipients", "error", err, "event_id", event.EventID())
		return nil
	}

	for _, adminID := range adminIDs {
		h.send(Notification{
			UserID:  adminID,
			Type:    TypeCancellationRequested,
			Title:   "Cancellation request pending review",
			Message: fmt.Sprintf("Reservation %d has a cancellation request awaiting review.", e.ReservationID),
			Data: map[string]interface{}{
				"reservation_id": e.ReservationID,
				"guest_id":       e.GuestID,
				"reason":         e.Reason,
			},
		})
	}
	return nil
}

// handleCancellationDecided notifies the guest of the admin's decision.
func (h *EventHandler) handleCancellationDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CancellationDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	n := Notification{
		UserID: e.GuestID,
		Data: map[string]interface{}{
			"reservation_id": e.ReservationID,
		},
	}

	if e.Approved {
		n.Type = TypeCancellationApproved
		n.Title = "Cancellation approved"
		n.Message = fmt.Sprintf("Your cancellation for reservation %d was approved and your payment will be refunded.", e.ReservationID)
	} else {
		n.Type = TypeCancellationRejected
		n.Title = "Cancellation rejected"
		n.Message = fmt.Sprintf("Your cancellation request for reservation %d was rejected.", e.ReservationID)
		if e.Reason != "" {
			n.Data["reason"] = e.Reason
		}
	}

	h.send(n)
	return nil
}

// handleReservationDecided notifies the guest of the host's decision.
func (h *EventHandler) handleReservationDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ReservationDecidedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	n := Notification{
		UserID: e.GuestID,
		Data: map[string]interface{}{
			"reservation_id": e.ReservationID,
		},
	}

	if e.Confirmed {
		n.Type = TypeReservationConfirmed
		n.Title = "Reservation confirmed"
		n.Message = fmt.Sprintf("Your reservation %d has been confirmed by the host.", e.ReservationID)
	} else {
		n.Type = TypeReservationRefused
		n.Title = "Reservation refused"
		n.Message = fmt.Sprintf("Your reservation %d was refused by the host.", e.ReservationID)
	}

	h.send(n)
	return nil
}

// handlePayoutPaid notifies the host their payout went out.
func (h *EventHandler) handlePayoutPaid(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PayoutPaidEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	h.send(Notification{
		UserID:  e.HostID,
		Type:    TypePayoutPaid,
		Title:   "Payout sent",
		Message: fmt.Sprintf("Your payout of %s has been sent via %s.", e.Amount, e.Method),
		Data: map[string]interface{}{
			"host_payment_id": e.HostPaymentID,
			"amount":          e.Amount,
			"method":          e.Method,
			"reference":       e.Reference,
		},
	})
	return nil
}

func (h *EventHandler) send(n Notification) {
	if err := h.notifier.Notify(n); err != nil {
		h.logger.Error("failed to queue notification",
			"error", err,
			"user_id", n.UserID,
			"type", n.Type)
	}
}
