package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCancellationRequested = "reservation.cancellation_requested"
	EventTypeCancellationApproved  = "reservation.cancellation_approved"
	EventTypeCancellationRejected  = "reservation.cancellation_rejected"
	EventTypeReservationConfirmed  = "reservation.confirmed"
	EventTypeReservationRefused    = "reservation.refused"
	EventTypePayoutPaid            = "payout.paid"
)

type CancellationRequestedEvent struct {
	BaseEvent
	ReservationID int64  `json:"reservation_id"`
	GuestID       int64  `json:"guest_id"`
	HostID        int64  `json:"host_id"`
	Reason        string `json:"reason"`
}

func NewCancellationRequestedEvent(reservationID, guestID, hostID int64, reason string) *CancellationRequestedEvent {
	return &CancellationRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCancellationRequested,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reservation_id": reservationID,
				"guest_id":       guestID,
				"host_id":        hostID,
				"reason":         reason,
			},
		},
		ReservationID: reservationID,
		GuestID:       guestID,
		HostID:        hostID,
		Reason:        reason,
	}
}

type CancellationDecidedEvent struct {
	BaseEvent
	ReservationID int64  `json:"reservation_id"`
	GuestID       int64  `json:"guest_id"`
	AdminID       int64  `json:"admin_id"`
	Approved      bool   `json:"approved"`
	Reason        string `json:"reason,omitempty"`
}

func NewCancellationApprovedEvent(reservationID, guestID, adminID int64) *CancellationDecidedEvent {
	return &CancellationDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCancellationApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reservation_id": reservationID,
				"guest_id":       guestID,
				"admin_id":       adminID,
			},
		},
		ReservationID: reservationID,
		GuestID:       guestID,
		AdminID:       adminID,
		Approved:      true,
	}
}

func NewCancellationRejectedEvent(reservationID, guestID, adminID int64, reason string) *CancellationDecidedEvent {
	return &CancellationDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCancellationRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reservation_id": reservationID,
				"guest_id":       guestID,
				"admin_id":       adminID,
				"reason":         reason,
			},
		},
		ReservationID: reservationID,
		GuestID:       guestID,
		AdminID:       adminID,
		Approved:      false,
		Reason:        reason,
	}
}

type ReservationDecidedEvent struct {
	BaseEvent
	ReservationID int64 `json:"reservation_id"`
	GuestID       int64 `json:"guest_id"`
	HostID        int64 `json:"host_id"`
	Confirmed     bool  `json:"confirmed"`
}

func NewReservationConfirmedEvent(reservationID, guestID, hostID int64) *ReservationDecidedEvent {
	return &ReservationDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeReservationConfirmed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reservation_id": reservationID,
				"guest_id":       guestID,
				"host_id":        hostID,
			},
		},
		ReservationID: reservationID,
		GuestID:       guestID,
		HostID:        hostID,
		Confirmed:     true,
	}
}

func NewReservationRefusedEvent(reservationID, guestID, hostID int64) *ReservationDecidedEvent {
	return &ReservationDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeReservationRefused,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"reservation_id": reservationID,
				"guest_id":       guestID,
				"host_id":        hostID,
			},
		},
		ReservationID: reservationID,
		GuestID:       guestID,
		HostID:        hostID,
		Confirmed:     false,
	}
}

type PayoutPaidEvent struct {
	BaseEvent
	HostPaymentID int64  `json:"host_payment_id"`
	HostID        int64  `json:"host_id"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	Reference     string `json:"reference"`
}

func NewPayoutPaidEvent(hostPaymentID, hostID int64, amount, method, reference string) *PayoutPaidEvent {
	return &PayoutPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePayoutPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"host_payment_id": hostPaymentID,
				"host_id":         hostID,
				"amount":          amount,
				"method":          method,
				"reference":       reference,
			},
		},
		HostPaymentID: hostPaymentID,
		HostID:        hostID,
		Amount:        amount,
		Method:        method,
		Reference:     reference,
	}
}
