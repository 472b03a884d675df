package reporting_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	internal "github.com/frahmantamala/reservation-management/internal"
	"github.com/frahmantamala/reservation-management/internal/reporting"
)

func TestReportingService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ReportingService Suite")
}

// Mock repository for testing
type mockReportingRepository struct {
	rows     []reporting.ReservationRow
	listErr  error
	lastFrom time.Time
	lastTo   time.Time
}

func (m *mockReportingRepository) ListBookedRows(from, to time.Time) ([]reporting.ReservationRow, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.lastFrom, m.lastTo = from, to

	out := make([]reporting.ReservationRow, 0)
	for _, row := range m.rows {
		if !row.CheckIn.Before(from) && row.CheckIn.Before(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("ReportingService", func() {
	var (
		service  *reporting.Service
		mockRepo *mockReportingRepository
		logger   *slog.Logger
	)

	addRow := func(propertyID int64, checkIn, checkOut time.Time, amount int64) {
		mockRepo.rows = append(mockRepo.rows, reporting.ReservationRow{
			PropertyID:  propertyID,
			CheckIn:     checkIn,
			CheckOut:    checkOut,
			TotalAmount: decimal.NewFromInt(amount),
		})
	}

	BeforeEach(func() {
		mockRepo = &mockReportingRepository{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = reporting.NewService(mockRepo, logger)
	})

	Describe("RevenueTrend", func() {
		BeforeEach(func() {
			addRow(101, day(2024, time.January, 5), day(2024, time.January, 8), 1000000)
			addRow(101, day(2024, time.January, 20), day(2024, time.January, 22), 500000)
			addRow(202, day(2024, time.March, 2), day(2024, time.March, 5), 2000000)
		})

		It("should bucket by month keyed on check-in", func() {
			trend, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityMonth,
				From:        day(2024, time.January, 1),
				To:          day(2024, time.April, 1),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(trend.Buckets).To(HaveLen(2))
			Expect(trend.Buckets[0].PeriodLabel).To(Equal("2024-01"))
			Expect(trend.Buckets[0].Reservations).To(Equal(2))
			Expect(trend.Buckets[0].Revenue.String()).To(Equal("1500000"))
			Expect(trend.Buckets[1].PeriodLabel).To(Equal("2024-03"))
			Expect(trend.Buckets[1].Revenue.String()).To(Equal("2000000"))
		})

		It("should return buckets in chronological order", func() {
			trend, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityDay,
				From:        day(2024, time.January, 1),
				To:          day(2024, time.April, 1),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(trend.Buckets).To(HaveLen(3))
			for i := 1; i < len(trend.Buckets); i++ {
				Expect(trend.Buckets[i-1].PeriodLabel < trend.Buckets[i].PeriodLabel).To(BeTrue())
			}
		})

		It("should collapse the whole range into one custom bucket", func() {
			trend, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityCustom,
				From:        day(2024, time.January, 1),
				To:          day(2024, time.April, 1),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(trend.Buckets).To(HaveLen(1))
			Expect(trend.Buckets[0].Reservations).To(Equal(3))
			Expect(trend.Buckets[0].Revenue.String()).To(Equal("3500000"))
		})

		It("should exclude check-ins outside the range", func() {
			trend, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityMonth,
				From:        day(2024, time.February, 1),
				To:          day(2024, time.April, 1),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(trend.Buckets).To(HaveLen(1))
			Expect(trend.Buckets[0].PeriodLabel).To(Equal("2024-03"))
		})

		It("should label ISO weeks", func() {
			trend, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityWeek,
				From:        day(2024, time.January, 1),
				To:          day(2024, time.February, 1),
			})

			Expect(err).ToNot(HaveOccurred())
			// Jan 5 2024 falls in ISO week 1, Jan 20 in week 3
			Expect(trend.Buckets).To(HaveLen(2))
			Expect(trend.Buckets[0].PeriodLabel).To(Equal("2024-W01"))
			Expect(trend.Buckets[1].PeriodLabel).To(Equal("2024-W03"))
		})

		It("should reject an unknown granularity", func() {
			_, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: "quarter",
				From:        day(2024, time.January, 1),
				To:          day(2024, time.April, 1),
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should reject an inverted range", func() {
			_, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityMonth,
				From:        day(2024, time.April, 1),
				To:          day(2024, time.January, 1),
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should return an empty bucket list for an empty range", func() {
			trend, err := service.RevenueTrend(reporting.TrendQuery{
				Granularity: reporting.GranularityMonth,
				From:        day(2020, time.January, 1),
				To:          day(2020, time.April, 1),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(trend.Buckets).To(BeEmpty())
		})
	})

	Describe("PropertySummaries", func() {
		BeforeEach(func() {
			addRow(101, day(2024, time.January, 5), day(2024, time.January, 8), 1000000)
			addRow(101, day(2024, time.January, 20), day(2024, time.January, 22), 500000)
			addRow(202, day(2024, time.March, 2), day(2024, time.March, 5), 2000000)
		})

		It("should aggregate per property sorted by revenue descending", func() {
			summary, err := service.PropertySummaries(day(2024, time.January, 1), day(2024, time.April, 1))

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Properties).To(HaveLen(2))
			Expect(summary.Properties[0].PropertyID).To(Equal(int64(202)))
			Expect(summary.Properties[0].Revenue.String()).To(Equal("2000000"))
			Expect(summary.Properties[1].PropertyID).To(Equal(int64(101)))
			Expect(summary.Properties[1].Reservations).To(Equal(2))
			Expect(summary.Properties[1].Revenue.String()).To(Equal("1500000"))
		})

		It("should compute the average stay length", func() {
			summary, err := service.PropertySummaries(day(2024, time.January, 1), day(2024, time.April, 1))

			Expect(err).ToNot(HaveOccurred())
			// property 101: stays of 3 and 2 nights
			Expect(summary.Properties[1].AvgStayDays.String()).To(Equal("2.5"))
		})

		It("should reject an inverted range", func() {
			_, err := service.PropertySummaries(day(2024, time.April, 1), day(2024, time.January, 1))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})
})
