package notification

// Notification types pushed to the external notification service.
const (
	TypeCancellationRequested = "cancellation_requested"
	TypeCancellationApproved  = "cancellation_approved"
	TypeCancellationRejected  = "cancellation_rejected"
	TypeReservationConfirmed  = "reservation_confirmed"
	TypeReservationRefused    = "reservation_refused"
	TypePayoutPaid            = "payout_paid"
)

// Notification is the outbound message shape. Delivery is fire-and-forget:
// a failed send is logged and dropped, never retried into the caller's path.
type Notification struct {
	UserID  int64                  `json:"user_id"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Notifier sends notifications to users.
type Notifier interface {
	Notify(n Notification) error
}

// DirectoryAPI resolves recipient groups for broadcast notifications.
type DirectoryAPI interface {
	AdminIDs() ([]int64, error)
}
