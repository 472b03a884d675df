package payout_test

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
	payoutDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/payout"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/core/events"
	"github.com/frahmantamala/reservation-management/internal/payout"
)

func TestPayoutService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PayoutService Suite")
}

// Mock repository for testing
type mockPayoutRepository struct {
	reservations []*reservationDatamodel.Reservation
	payments     map[int64]*payoutDatamodel.HostPayment
	details      map[int64][]*payoutDatamodel.HostPaymentDetail
	earnings     map[string]*payoutDatamodel.AppEarnings
	listError    error
	replaceError error
	nextID       int64
}

func newMockPayoutRepository() *mockPayoutRepository {
	return &mockPayoutRepository{
		payments: make(map[int64]*payoutDatamodel.HostPayment),
		details:  make(map[int64][]*payoutDatamodel.HostPaymentDetail),
		earnings: make(map[string]*payoutDatamodel.AppEarnings),
		nextID:   1,
	}
}

func (m *mockPayoutRepository) ListPayableReservations(month, year int) ([]*reservationDatamodel.Reservation, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]*reservationDatamodel.Reservation, 0)
	for _, res := range m.reservations {
		if int(res.CreatedAt.Month()) == month && res.CreatedAt.Year() == year {
			out = append(out, res)
		}
	}
	return out, nil
}

func (m *mockPayoutRepository) ReplaceHostPayment(payment *payoutDatamodel.HostPayment, details []*payoutDatamodel.HostPaymentDetail) error {
	if m.replaceError != nil {
		return m.replaceError
	}

	for id, existing := range m.payments {
		if existing.HostID == payment.HostID && existing.Month == payment.Month && existing.Year == payment.Year {
			delete(m.payments, id)
			delete(m.details, id)
		}
	}

	payment.ID = m.nextID
	m.nextID++
	m.payments[payment.ID] = payment
	for _, detail := range details {
		detail.HostPaymentID = payment.ID
	}
	m.details[payment.ID] = details
	return nil
}

func (m *mockPayoutRepository) GetHostPayment(id int64) (*payoutDatamodel.HostPayment, error) {
	payment, exists := m.payments[id]
	if !exists {
		return nil, errors.New("host payment not found")
	}
	return payment, nil
}

func (m *mockPayoutRepository) GetByPeriod(hostID int64, month, year int) (*payoutDatamodel.HostPayment, error) {
	for _, payment := range m.payments {
		if payment.HostID == hostID && payment.Month == month && payment.Year == year {
			return payment, nil
		}
	}
	return nil, nil
}

func (m *mockPayoutRepository) ListHostPayments(limit, offset int) ([]*payoutDatamodel.HostPayment, error) {
	out := make([]*payoutDatamodel.HostPayment, 0, len(m.payments))
	for _, payment := range m.payments {
		out = append(out, payment)
	}
	return out, nil
}

func (m *mockPayoutRepository) ListByHost(hostID int64, limit, offset int) ([]*payoutDatamodel.HostPayment, error) {
	out := make([]*payoutDatamodel.HostPayment, 0)
	for _, payment := range m.payments {
		if payment.HostID == hostID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (m *mockPayoutRepository) GetDetails(hostPaymentID int64) ([]*payoutDatamodel.HostPaymentDetail, error) {
	return m.details[hostPaymentID], nil
}

func (m *mockPayoutRepository) DeleteStaleUnpaid(month, year int, activeHostIDs []int64) (int64, error) {
	active := make(map[int64]bool, len(activeHostIDs))
	for _, id := range activeHostIDs {
		active[id] = true
	}

	var removed int64
	for id, payment := range m.payments {
		if payment.Month != month || payment.Year != year {
			continue
		}
		if payment.PaymentStatus == payoutDatamodel.StatusPaid || active[payment.HostID] {
			continue
		}
		delete(m.payments, id)
		delete(m.details, id)
		removed++
	}
	return removed, nil
}

func (m *mockPayoutRepository) MarkPaidCAS(id int64, fromStatuses []string, method, reference string, paidAt time.Time) (bool, error) {
	payment, exists := m.payments[id]
	if !exists {
		return false, nil
	}
	matched := false
	for _, status := range fromStatuses {
		if payment.PaymentStatus == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	payment.PaymentStatus = payoutDatamodel.StatusPaid
	payment.PaymentMethod = &method
	payment.PaymentReference = &reference
	payment.PaidAt = &paidAt
	return true, nil
}

func (m *mockPayoutRepository) UpsertAppEarnings(earnings *payoutDatamodel.AppEarnings) error {
	key := time.Date(earnings.Year, time.Month(earnings.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	m.earnings[key] = earnings
	return nil
}

func (m *mockPayoutRepository) SumHostPayments(hostID int64, fromMonth, fromYear, toMonth, toYear int) (*payout.HostStats, error) {
	stats := payout.ZeroHostStats(hostID)
	for _, p := range m.payments {
		if p.HostID != hostID {
			continue
		}
		period := p.Year*100 + p.Month
		if period < fromYear*100+fromMonth || period > toYear*100+toMonth {
			continue
		}
		stats.TotalPayments++
		stats.TotalReservations += p.TotalReservations
		stats.TotalRevenue = stats.TotalRevenue.Add(p.TotalRevenue)
		stats.TotalCommission = stats.TotalCommission.Add(p.CommissionAmount)
		stats.TotalEarnings = stats.TotalEarnings.Add(p.HostEarnings)
		if p.PaymentStatus == payoutDatamodel.StatusPaid {
			stats.PaidAmount = stats.PaidAmount.Add(p.HostEarnings)
		} else {
			stats.PendingAmount = stats.PendingAmount.Add(p.HostEarnings)
		}
	}
	return stats, nil
}

func (m *mockPayoutRepository) SumAppEarnings(fromMonth, fromYear, toMonth, toYear int) (*payout.AppStats, error) {
	stats := payout.ZeroAppStats()
	for _, p := range m.payments {
		period := p.Year*100 + p.Month
		if period < fromYear*100+fromMonth || period > toYear*100+toMonth {
			continue
		}
		stats.TotalReservations += p.TotalReservations
		stats.TotalRevenue = stats.TotalRevenue.Add(p.TotalRevenue)
		stats.TotalCommission = stats.TotalCommission.Add(p.CommissionAmount)
		stats.TotalHostPayments = stats.TotalHostPayments.Add(p.HostEarnings)
	}
	stats.NetEarnings = stats.TotalCommission
	return stats, nil
}

// Mock commission resolver for testing
type mockCommissionAPI struct {
	rates       map[int64]decimal.Decimal
	defaultErr  error
	lookupError error
}

func (m *mockCommissionAPI) GetEffectiveRateForHost(hostID int64) (decimal.Decimal, error) {
	if m.lookupError != nil {
		return decimal.Zero, m.lookupError
	}
	if rate, ok := m.rates[hostID]; ok {
		return rate, nil
	}
	if m.defaultErr != nil {
		return decimal.Zero, m.defaultErr
	}
	return decimal.Zero, internal.ErrCommissionNotFound
}

var _ = Describe("PayoutService", func() {
	var (
		service        *payout.Service
		mockRepo       *mockPayoutRepository
		mockCommission *mockCommissionAPI
		logger         *slog.Logger
	)

	march := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	addReservation := func(hostID int64, amount int64, createdAt time.Time) {
		mockRepo.reservations = append(mockRepo.reservations, &reservationDatamodel.Reservation{
			ID:          int64(len(mockRepo.reservations) + 1),
			HostID:      hostID,
			GuestID:     7,
			PropertyID:  101,
			TotalAmount: decimal.NewFromInt(amount),
			Status:      "confirmed",
			CreatedAt:   createdAt,
		})
	}

	BeforeEach(func() {
		mockRepo = newMockPayoutRepository()
		mockCommission = &mockCommissionAPI{rates: make(map[int64]decimal.Decimal)}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus := events.NewEventBus(logger)
		service = payout.NewService(mockRepo, mockCommission, eventBus, decimal.NewFromInt(15), logger)
	})

	Describe("CalculateHostPayments", func() {
		Context("with two reservations for one host at a 10% rate", func() {
			BeforeEach(func() {
				mockCommission.rates[3] = decimal.NewFromInt(10)
				addReservation(3, 1000000, march)
				addReservation(3, 500000, march)
			})

			It("should split revenue into commission and host earnings", func() {
				summary, err := service.CalculateHostPayments(3, 2024)

				Expect(err).ToNot(HaveOccurred())
				Expect(summary.HostsProcessed).To(Equal(1))
				Expect(summary.TotalReservations).To(Equal(2))
				Expect(summary.TotalRevenue.String()).To(Equal("1500000"))
				Expect(summary.TotalCommission.String()).To(Equal("150000"))
				Expect(summary.TotalHostEarnings.String()).To(Equal("1350000"))
			})

			It("should keep the parent totals equal to the sum of details", func() {
				_, err := service.CalculateHostPayments(3, 2024)
				Expect(err).ToNot(HaveOccurred())

				payments, err := mockRepo.ListByHost(3, 10, 0)
				Expect(err).ToNot(HaveOccurred())
				Expect(payments).To(HaveLen(1))

				payment := payments[0]
				details := mockRepo.details[payment.ID]
				Expect(details).To(HaveLen(2))

				detailRevenue := decimal.Zero
				detailCommission := decimal.Zero
				detailHost := decimal.Zero
				for _, d := range details {
					detailRevenue = detailRevenue.Add(d.ReservationAmount)
					detailCommission = detailCommission.Add(d.CommissionAmount)
					detailHost = detailHost.Add(d.HostAmount)
					Expect(d.HostAmount.Add(d.CommissionAmount).Equal(d.ReservationAmount)).To(BeTrue())
				}
				Expect(payment.TotalRevenue.Equal(detailRevenue)).To(BeTrue())
				Expect(payment.CommissionAmount.Equal(detailCommission)).To(BeTrue())
				Expect(payment.HostEarnings.Equal(detailHost)).To(BeTrue())
				Expect(payment.HostEarnings.Add(payment.CommissionAmount).Equal(payment.TotalRevenue)).To(BeTrue())
			})

			It("should be idempotent across re-runs", func() {
				_, err := service.CalculateHostPayments(3, 2024)
				Expect(err).ToNot(HaveOccurred())
				_, err = service.CalculateHostPayments(3, 2024)
				Expect(err).ToNot(HaveOccurred())

				payments, err := mockRepo.ListByHost(3, 10, 0)
				Expect(err).ToNot(HaveOccurred())
				Expect(payments).To(HaveLen(1))
				Expect(payments[0].TotalRevenue.String()).To(Equal("1500000"))
			})

			It("should recompute app earnings for the period", func() {
				_, err := service.CalculateHostPayments(3, 2024)
				Expect(err).ToNot(HaveOccurred())

				earnings := mockRepo.earnings["2024-03"]
				Expect(earnings).ToNot(BeNil())
				Expect(earnings.TotalRevenue.String()).To(Equal("1500000"))
				Expect(earnings.NetEarnings.String()).To(Equal("150000"))
			})
		})

		It("should fall back to the default rate when no setting exists", func() {
			addReservation(5, 1000000, march)

			summary, err := service.CalculateHostPayments(3, 2024)

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalCommission.String()).To(Equal("150000"))
			Expect(summary.TotalHostEarnings.String()).To(Equal("850000"))
		})

		It("should round per-reservation commission to cents", func() {
			mockCommission.rates[3] = decimal.NewFromInt(15)
			addReservation(3, 99999, march)

			summary, err := service.CalculateHostPayments(3, 2024)

			Expect(err).ToNot(HaveOccurred())
			// 99999 * 15% = 14999.85
			Expect(summary.TotalCommission.String()).To(Equal("14999.85"))
			Expect(summary.TotalHostEarnings.Add(summary.TotalCommission).Equal(summary.TotalRevenue)).To(BeTrue())
		})

		It("should not touch a payout already marked paid", func() {
			mockCommission.rates[3] = decimal.NewFromInt(10)
			addReservation(3, 1000000, march)

			_, err := service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			payments, _ := mockRepo.ListByHost(3, 10, 0)
			paidID := payments[0].ID
			_, err = service.MarkPaymentAsPaid(paidID, payout.MarkPaidDTO{PaymentMethod: "bank_transfer", PaymentReference: "TRX-1"})
			Expect(err).ToNot(HaveOccurred())

			// a late reservation lands in the same period
			addReservation(3, 500000, march)
			_, err = service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			stored, err := mockRepo.GetHostPayment(paidID)
			Expect(err).ToNot(HaveOccurred())
			Expect(stored.PaymentStatus).To(Equal(payoutDatamodel.StatusPaid))
			Expect(stored.TotalRevenue.String()).To(Equal("1000000"))
		})

		It("should drop an unpaid payout for a host with no remaining reservations", func() {
			mockCommission.rates[3] = decimal.NewFromInt(10)
			mockCommission.rates[4] = decimal.NewFromInt(10)
			addReservation(3, 1000000, march)
			addReservation(4, 500000, march)

			_, err := service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			payments, _ := mockRepo.ListByHost(4, 10, 0)
			Expect(payments).To(HaveLen(1))

			// host 4's reservation drops out of the payable set
			mockRepo.reservations = mockRepo.reservations[:1]
			_, err = service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			payments, _ = mockRepo.ListByHost(4, 10, 0)
			Expect(payments).To(BeEmpty())

			earnings := mockRepo.earnings["2024-03"]
			Expect(earnings).ToNot(BeNil())
			Expect(earnings.TotalRevenue.String()).To(Equal("1000000"))
		})

		It("should keep a paid payout even when its host has no remaining reservations", func() {
			mockCommission.rates[4] = decimal.NewFromInt(10)
			addReservation(4, 500000, march)

			_, err := service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			payments, _ := mockRepo.ListByHost(4, 10, 0)
			_, err = service.MarkPaymentAsPaid(payments[0].ID, payout.MarkPaidDTO{PaymentMethod: "bank_transfer", PaymentReference: "TRX-4"})
			Expect(err).ToNot(HaveOccurred())

			mockRepo.reservations = nil
			_, err = service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			payments, _ = mockRepo.ListByHost(4, 10, 0)
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].PaymentStatus).To(Equal(payoutDatamodel.StatusPaid))
		})

		It("should produce an empty summary for a month with no reservations", func() {
			summary, err := service.CalculateHostPayments(1, 2024)

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.HostsProcessed).To(Equal(0))
			Expect(summary.TotalRevenue.String()).To(Equal("0"))
		})

		It("should reject an out-of-range month", func() {
			_, err := service.CalculateHostPayments(13, 2024)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("MarkPaymentAsPaid", func() {
		var paymentID int64

		BeforeEach(func() {
			mockCommission.rates[3] = decimal.NewFromInt(10)
			addReservation(3, 1000000, march)
			_, err := service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			payments, _ := mockRepo.ListByHost(3, 10, 0)
			paymentID = payments[0].ID
		})

		It("should mark a pending payout as paid", func() {
			payment, err := service.MarkPaymentAsPaid(paymentID, payout.MarkPaidDTO{
				PaymentMethod:    "bank_transfer",
				PaymentReference: "TRX-2024-03",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(payment.PaymentStatus).To(Equal(payoutDatamodel.StatusPaid))
			Expect(payment.PaidAt).ToNot(BeNil())
			Expect(*payment.PaymentMethod).To(Equal("bank_transfer"))
		})

		It("should reject marking a paid payout again", func() {
			_, err := service.MarkPaymentAsPaid(paymentID, payout.MarkPaidDTO{PaymentMethod: "bank_transfer", PaymentReference: "TRX-1"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.MarkPaymentAsPaid(paymentID, payout.MarkPaidDTO{PaymentMethod: "bank_transfer", PaymentReference: "TRX-2"})
			Expect(err).To(Equal(internal.ErrPayoutAlreadyPaid))
		})

		It("should require a payment method", func() {
			_, err := service.MarkPaymentAsPaid(paymentID, payout.MarkPaidDTO{PaymentReference: "TRX-1"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should require a payment reference", func() {
			_, err := service.MarkPaymentAsPaid(paymentID, payout.MarkPaidDTO{PaymentMethod: "bank_transfer"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

			stored, err := mockRepo.GetHostPayment(paymentID)
			Expect(err).ToNot(HaveOccurred())
			Expect(stored.PaymentStatus).To(Equal(payoutDatamodel.StatusPending))
		})

		It("should return not found for a missing payout", func() {
			_, err := service.MarkPaymentAsPaid(9999, payout.MarkPaidDTO{PaymentMethod: "bank_transfer", PaymentReference: "TRX-1"})
			Expect(err).To(Equal(internal.ErrPayoutNotFound))
		})
	})

	Describe("PreviousPeriod", func() {
		It("should return the prior month from a month-end date", func() {
			month, year := payout.PreviousPeriod(time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC))
			Expect(month).To(Equal(2))
			Expect(year).To(Equal(2024))
		})

		It("should return the prior month from a mid-month date", func() {
			month, year := payout.PreviousPeriod(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
			Expect(month).To(Equal(2))
			Expect(year).To(Equal(2024))
		})

		It("should roll back to December across a year boundary", func() {
			month, year := payout.PreviousPeriod(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
			Expect(month).To(Equal(12))
			Expect(year).To(Equal(2023))
		})
	})

	Describe("GetHostStats", func() {
		It("should return zeroed aggregates for a host with no payouts", func() {
			stats, err := service.GetHostStats(77, 1, 2024, 12, 2024)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.HostID).To(Equal(int64(77)))
			Expect(stats.TotalPayments).To(Equal(0))
			Expect(stats.TotalRevenue.String()).To(Equal("0"))
		})

		It("should split pending and paid amounts", func() {
			mockCommission.rates[3] = decimal.NewFromInt(10)
			addReservation(3, 1000000, march)
			_, err := service.CalculateHostPayments(3, 2024)
			Expect(err).ToNot(HaveOccurred())

			stats, err := service.GetHostStats(3, 1, 2024, 12, 2024)
			Expect(err).ToNot(HaveOccurred())
			Expect(stats.PendingAmount.String()).To(Equal("900000"))
			Expect(stats.PaidAmount.String()).To(Equal("0"))
		})
	})

	Describe("GetAppStats", func() {
		It("should return zeroed aggregates for an empty range", func() {
			stats, err := service.GetAppStats(1, 2020, 12, 2020)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.TotalReservations).To(Equal(0))
			Expect(stats.NetEarnings.String()).To(Equal("0"))
		})
	})
})
