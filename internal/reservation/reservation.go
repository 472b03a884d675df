package reservation

// Reservation lifecycle statuses. A guest-initiated cancellation always goes
// through pending_cancellation so an admin sees it before money moves.
const (
	StatusPending             = "pending"
	StatusConfirmed           = "confirmed"
	StatusCancelled           = "cancelled"
	StatusCompleted           = "completed"
	StatusPendingCancellation = "pending_cancellation"
)

// Payment settlement states written by the gateway callback flow.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
	PaymentFailed   = "failed"
)

var allowedTransitions = map[string][]string{
	StatusPending:             {StatusConfirmed, StatusCancelled, StatusPendingCancellation},
	StatusConfirmed:           {StatusCompleted, StatusCancelled, StatusPendingCancellation},
	StatusPendingCancellation: {StatusCancelled, StatusConfirmed, StatusPending},
	StatusCancelled:           {},
	StatusCompleted:           {},
}

// CanTransition reports whether the lifecycle state machine permits moving
// from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusPendingCancellation:
		return true
	}
	return false
}

func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentPending, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}
