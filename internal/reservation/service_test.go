package reservation_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/reservation-management/internal"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/core/events"
	"github.com/frahmantamala/reservation-management/internal/reservation"
)

func TestReservationService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ReservationService Suite")
}

// Mock repository for testing
type mockReservationRepository struct {
	reservations map[int64]*reservationDatamodel.Reservation
	overlapCount int64
	deletedCount int64
	getError     error
	updateError  error
	countError   error
	nextID       int64
}

func newMockReservationRepository() *mockReservationRepository {
	return &mockReservationRepository{
		reservations: make(map[int64]*reservationDatamodel.Reservation),
		nextID:       1,
	}
}

func (m *mockReservationRepository) add(res *reservationDatamodel.Reservation) *reservationDatamodel.Reservation {
	res.ID = m.nextID
	m.nextID++
	res.CreatedAt = time.Now()
	res.UpdatedAt = time.Now()
	m.reservations[res.ID] = res
	return res
}

func (m *mockReservationRepository) GetByID(id int64) (*reservationDatamodel.Reservation, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	res, exists := m.reservations[id]
	if !exists {
		return nil, errors.New("reservation not found")
	}
	copied := *res
	return &copied, nil
}

func (m *mockReservationRepository) GetByIDs(ids []int64) ([]*reservationDatamodel.Reservation, error) {
	out := make([]*reservationDatamodel.Reservation, 0, len(ids))
	for _, id := range ids {
		if res, ok := m.reservations[id]; ok {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *mockReservationRepository) ListByHost(hostID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	out := make([]*reservationDatamodel.Reservation, 0)
	for _, res := range m.reservations {
		if res.HostID == hostID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *mockReservationRepository) ListByGuest(guestID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	out := make([]*reservationDatamodel.Reservation, 0)
	for _, res := range m.reservations {
		if res.GuestID == guestID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *mockReservationRepository) ListByProperty(propertyID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	out := make([]*reservationDatamodel.Reservation, 0)
	for _, res := range m.reservations {
		if res.PropertyID == propertyID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *mockReservationRepository) UpdateCAS(id int64, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	if m.updateError != nil {
		return false, m.updateError
	}
	res, exists := m.reservations[id]
	if !exists {
		return false, nil
	}

	matched := false
	for _, status := range fromStatuses {
		if res.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	if v, ok := updates["status"]; ok {
		res.Status = v.(string)
	}
	if v, ok := updates["payment_status"]; ok {
		res.PaymentStatus = v.(string)
	}
	if v, ok := updates["cancellation_reason"]; ok {
		if v == nil {
			res.CancellationReason = nil
		} else {
			reason := v.(string)
			res.CancellationReason = &reason
		}
	}
	if v, ok := updates["cancelled_at"]; ok {
		at := v.(time.Time)
		res.CancelledAt = &at
	}
	res.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockReservationRepository) ReplaceServices(id int64, services reservationDatamodel.AdditionalServices, totalAmount decimal.Decimal) error {
	if m.updateError != nil {
		return m.updateError
	}
	res, exists := m.reservations[id]
	if !exists {
		return errors.New("reservation not found")
	}
	res.AdditionalServices = services
	res.TotalAmount = totalAmount
	return nil
}

func (m *mockReservationRepository) CountOverlapping(propertyID int64, checkIn, checkOut time.Time) (int64, error) {
	if m.countError != nil {
		return 0, m.countError
	}
	return m.overlapCount, nil
}

func (m *mockReservationRepository) DeleteExpired(today time.Time) (int64, error) {
	return m.deletedCount, nil
}

var _ = Describe("ReservationService", func() {
	var (
		service  *reservation.Service
		mockRepo *mockReservationRepository
		logger   *slog.Logger
	)

	newReservation := func(status, paymentStatus string) *reservationDatamodel.Reservation {
		return mockRepo.add(&reservationDatamodel.Reservation{
			PropertyID:    101,
			GuestID:       7,
			HostID:        3,
			CheckIn:       time.Now().AddDate(0, 0, 10),
			CheckOut:      time.Now().AddDate(0, 0, 13),
			BaseAmount:    decimal.NewFromInt(1000000),
			TotalAmount:   decimal.NewFromInt(1000000),
			Status:        status,
			PaymentStatus: paymentStatus,
		})
	}

	BeforeEach(func() {
		mockRepo = newMockReservationRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus := events.NewEventBus(logger)
		service = reservation.NewService(mockRepo, eventBus, logger)
	})

	Describe("UpdateStatus", func() {
		Context("when the transition is allowed", func() {
			It("should move a pending reservation to confirmed", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusConfirmed})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusConfirmed))
			})

			It("should stamp cancelled_at when moving to cancelled", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusCancelled})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusCancelled))
				Expect(updated.CancelledAt).ToNot(BeNil())
			})
		})

		Context("when the transition is not allowed", func() {
			It("should reject completing a pending reservation", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				_, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusCompleted})

				Expect(err).To(Equal(internal.ErrInvalidTransition))
			})

			It("should reject any transition out of cancelled", func() {
				res := newReservation(reservation.StatusCancelled, reservation.PaymentRefunded)

				_, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusConfirmed})

				Expect(err).To(Equal(internal.ErrInvalidTransition))
			})

			It("should reject any transition out of completed", func() {
				res := newReservation(reservation.StatusCompleted, reservation.PaymentPaid)

				_, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusCancelled})

				Expect(err).To(Equal(internal.ErrInvalidTransition))
			})

			It("should leave the reservation unchanged on a rejected transition", func() {
				res := newReservation(reservation.StatusCompleted, reservation.PaymentPaid)

				_, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusCancelled})
				Expect(err).To(HaveOccurred())

				stored, getErr := mockRepo.GetByID(res.ID)
				Expect(getErr).ToNot(HaveOccurred())
				Expect(stored.Status).To(Equal(reservation.StatusCompleted))
			})
		})

		Context("when a concurrent writer wins the race", func() {
			It("should surface a conflict", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				// another writer moves the row between the read and the swap
				mockRepo.reservations[res.ID].Status = reservation.StatusCancelled

				_, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: reservation.StatusConfirmed})

				Expect(err).To(Equal(internal.ErrTransitionConflict))
			})
		})

		It("should reject an unknown status", func() {
			res := newReservation(reservation.StatusPending, reservation.PaymentPending)

			_, err := service.UpdateStatus(res.ID, reservation.UpdateStatusDTO{Status: "archived"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should return not found for a missing reservation", func() {
			_, err := service.UpdateStatus(999, reservation.UpdateStatusDTO{Status: reservation.StatusConfirmed})
			Expect(err).To(Equal(internal.ErrReservationNotFound))
		})
	})

	Describe("UpdatePaymentStatus", func() {
		It("should record a settled payment", func() {
			res := newReservation(reservation.StatusConfirmed, reservation.PaymentPending)

			updated, err := service.UpdatePaymentStatus(res.ID, reservation.UpdatePaymentStatusDTO{PaymentStatus: reservation.PaymentPaid})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.PaymentStatus).To(Equal(reservation.PaymentPaid))
			Expect(updated.Status).To(Equal(reservation.StatusConfirmed))
		})

		Context("with auto-confirm", func() {
			It("should confirm a pending reservation when the payment settles", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.UpdatePaymentStatus(res.ID, reservation.UpdatePaymentStatusDTO{
					PaymentStatus: reservation.PaymentPaid,
					AutoConfirm:   true,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusConfirmed))
				Expect(updated.PaymentStatus).To(Equal(reservation.PaymentPaid))
			})

			It("should not confirm on a failed payment", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.UpdatePaymentStatus(res.ID, reservation.UpdatePaymentStatusDTO{
					PaymentStatus: reservation.PaymentFailed,
					AutoConfirm:   true,
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusPending))
				Expect(updated.PaymentStatus).To(Equal(reservation.PaymentFailed))
			})
		})

		It("should reject an unknown payment status", func() {
			res := newReservation(reservation.StatusPending, reservation.PaymentPending)

			_, err := service.UpdatePaymentStatus(res.ID, reservation.UpdatePaymentStatusDTO{PaymentStatus: "chargeback"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("UpsertAdditionalServices", func() {
		It("should recompute line totals and the reservation total", func() {
			res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

			updated, err := service.UpsertAdditionalServices(res.ID, reservation.UpsertServicesDTO{
				Services: []reservation.ServiceItemDTO{
					{Name: "breakfast", Quantity: 3, UnitPrice: decimal.NewFromInt(50000)},
					{Name: "airport pickup", Quantity: 1, UnitPrice: decimal.NewFromInt(200000)},
				},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.AdditionalServices).To(HaveLen(2))
			Expect(updated.AdditionalServices[0].TotalPrice.String()).To(Equal("150000"))
			Expect(updated.TotalAmount.String()).To(Equal("1350000"))
		})

		It("should pin an explicitly overridden line total", func() {
			res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)
			override := decimal.NewFromInt(120000)

			updated, err := service.UpsertAdditionalServices(res.ID, reservation.UpsertServicesDTO{
				Services: []reservation.ServiceItemDTO{
					{Name: "breakfast", Quantity: 3, UnitPrice: decimal.NewFromInt(50000), TotalPrice: &override},
				},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.AdditionalServices[0].TotalPrice.String()).To(Equal("120000"))
			Expect(updated.AdditionalServices[0].PricePinned).To(BeTrue())
			Expect(updated.TotalAmount.String()).To(Equal("1120000"))
		})

		It("should not pin a matching explicit total", func() {
			res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)
			matching := decimal.NewFromInt(150000)

			updated, err := service.UpsertAdditionalServices(res.ID, reservation.UpsertServicesDTO{
				Services: []reservation.ServiceItemDTO{
					{Name: "breakfast", Quantity: 3, UnitPrice: decimal.NewFromInt(50000), TotalPrice: &matching},
				},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.AdditionalServices[0].PricePinned).To(BeFalse())
		})

		It("should clear services with an empty list", func() {
			res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

			updated, err := service.UpsertAdditionalServices(res.ID, reservation.UpsertServicesDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.AdditionalServices).To(BeEmpty())
			Expect(updated.TotalAmount.String()).To(Equal("1000000"))
		})

		It("should reject a negative unit price", func() {
			res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

			_, err := service.UpsertAdditionalServices(res.ID, reservation.UpsertServicesDTO{
				Services: []reservation.ServiceItemDTO{
					{Name: "refund hack", Quantity: 1, UnitPrice: decimal.NewFromInt(-100)},
				},
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("CheckAvailability", func() {
		query := func() reservation.AvailabilityDTO {
			return reservation.AvailabilityDTO{
				PropertyID: 101,
				CheckIn:    time.Now().AddDate(0, 0, 10),
				CheckOut:   time.Now().AddDate(0, 0, 12),
			}
		}

		It("should report available when no reservation overlaps", func() {
			mockRepo.overlapCount = 0

			available, err := service.CheckAvailability(query())

			Expect(err).ToNot(HaveOccurred())
			Expect(available).To(BeTrue())
		})

		It("should report unavailable on any overlap", func() {
			mockRepo.overlapCount = 1

			available, err := service.CheckAvailability(query())

			Expect(err).ToNot(HaveOccurred())
			Expect(available).To(BeFalse())
		})

		It("should reject check-out on or before check-in", func() {
			dto := query()
			dto.CheckOut = dto.CheckIn

			_, err := service.CheckAvailability(dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("CleanupExpired", func() {
		It("should report the purged row count", func() {
			mockRepo.deletedCount = 4

			deleted, err := service.CleanupExpired(time.Now())

			Expect(err).ToNot(HaveOccurred())
			Expect(deleted).To(Equal(int64(4)))
		})
	})

	Describe("Cancellation workflow", func() {
		Describe("RequestCancellation", func() {
			It("should move a pending reservation to pending_cancellation", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.RequestCancellation(res.ID, reservation.RequestCancellationDTO{Reason: "change of plans"})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusPendingCancellation))
				Expect(updated.CancellationReason).ToNot(BeNil())
				Expect(*updated.CancellationReason).To(Equal("change of plans"))
			})

			It("should move a confirmed reservation to pending_cancellation", func() {
				res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

				updated, err := service.RequestCancellation(res.ID, reservation.RequestCancellationDTO{})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusPendingCancellation))
			})

			It("should reject a request on a cancelled reservation", func() {
				res := newReservation(reservation.StatusCancelled, reservation.PaymentRefunded)

				_, err := service.RequestCancellation(res.ID, reservation.RequestCancellationDTO{})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
			})

			It("should reject a request on a completed reservation", func() {
				res := newReservation(reservation.StatusCompleted, reservation.PaymentPaid)

				_, err := service.RequestCancellation(res.ID, reservation.RequestCancellationDTO{})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
			})
		})

		Describe("ApproveCancellation", func() {
			It("should cancel and refund a pending cancellation", func() {
				res := newReservation(reservation.StatusPendingCancellation, reservation.PaymentPaid)

				updated, err := service.ApproveCancellation(res.ID, 42)

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusCancelled))
				Expect(updated.PaymentStatus).To(Equal(reservation.PaymentRefunded))
				Expect(updated.CancelledAt).ToNot(BeNil())
			})

			It("should reject approval outside pending_cancellation", func() {
				res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

				_, err := service.ApproveCancellation(res.ID, 42)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
			})
		})

		Describe("RejectCancellation", func() {
			It("should restore confirmed when the payment already settled", func() {
				res := newReservation(reservation.StatusPendingCancellation, reservation.PaymentPaid)

				updated, err := service.RejectCancellation(res.ID, 42, reservation.RejectCancellationDTO{Reason: "inside the no-refund window"})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusConfirmed))
				Expect(updated.CancellationReason).To(BeNil())
			})

			It("should restore pending when the payment never settled", func() {
				res := newReservation(reservation.StatusPendingCancellation, reservation.PaymentPending)

				updated, err := service.RejectCancellation(res.ID, 42, reservation.RejectCancellationDTO{})

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusPending))
			})

			It("should reject rejection outside pending_cancellation", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				_, err := service.RejectCancellation(res.ID, 42, reservation.RejectCancellationDTO{})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
			})
		})

		Describe("Confirm", func() {
			It("should confirm a pending reservation and settle payment", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.Confirm(res.ID, 3)

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusConfirmed))
				Expect(updated.PaymentStatus).To(Equal(reservation.PaymentPaid))
			})

			It("should reject confirming a non-pending reservation", func() {
				res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

				_, err := service.Confirm(res.ID, 3)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
			})
		})

		Describe("Refuse", func() {
			It("should cancel a pending reservation without touching payment", func() {
				res := newReservation(reservation.StatusPending, reservation.PaymentPending)

				updated, err := service.Refuse(res.ID, 3)

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(reservation.StatusCancelled))
				Expect(updated.PaymentStatus).To(Equal(reservation.PaymentPending))
				Expect(updated.CancelledAt).ToNot(BeNil())
			})

			It("should reject refusing a confirmed reservation", func() {
				res := newReservation(reservation.StatusConfirmed, reservation.PaymentPaid)

				_, err := service.Refuse(res.ID, 3)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidState))
			})
		})
	})
})

var _ = Describe("CanTransition", func() {
	It("should allow the documented lifecycle moves", func() {
		Expect(reservation.CanTransition(reservation.StatusPending, reservation.StatusConfirmed)).To(BeTrue())
		Expect(reservation.CanTransition(reservation.StatusPending, reservation.StatusCancelled)).To(BeTrue())
		Expect(reservation.CanTransition(reservation.StatusConfirmed, reservation.StatusCompleted)).To(BeTrue())
		Expect(reservation.CanTransition(reservation.StatusConfirmed, reservation.StatusPendingCancellation)).To(BeTrue())
		Expect(reservation.CanTransition(reservation.StatusPendingCancellation, reservation.StatusConfirmed)).To(BeTrue())
	})

	It("should treat cancelled and completed as terminal", func() {
		Expect(reservation.CanTransition(reservation.StatusCancelled, reservation.StatusPending)).To(BeFalse())
		Expect(reservation.CanTransition(reservation.StatusCancelled, reservation.StatusConfirmed)).To(BeFalse())
		Expect(reservation.CanTransition(reservation.StatusCompleted, reservation.StatusCancelled)).To(BeFalse())
	})

	It("should not allow skipping straight to completed", func() {
		Expect(reservation.CanTransition(reservation.StatusPending, reservation.StatusCompleted)).To(BeFalse())
	})
})
