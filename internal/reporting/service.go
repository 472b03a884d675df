package reporting

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	internal "github.com/frahmantamala/reservation-management/internal"
	"github.com/shopspring/decimal"
)

// ReservationRow is the flat read-side shape the aggregator consumes. Rows
// come from confirmed or completed reservations only.
type ReservationRow struct {
	PropertyID  int64           `db:"property_id"`
	CheckIn     time.Time       `db:"check_in"`
	CheckOut    time.Time       `db:"check_out"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

// RepositoryAPI is the read-side data access for reporting. Trends key on
// check_in, so the range filter applies to check_in, not created_at.
type RepositoryAPI interface {
	ListBookedRows(from, to time.Time) ([]ReservationRow, error)
}

// Service computes reporting aggregates per request. Nothing here is stored;
// reports are always derived fresh from the ledger.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// RevenueTrend buckets booked revenue by check-in date. Buckets come back in
// chronological order; empty buckets inside the range are omitted.
func (s *Service) RevenueTrend(query TrendQuery) (*TrendResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListBookedRows(query.From, query.To)
	if err != nil {
		s.logger.Error("failed to load reporting rows", "error", err)
		return nil, internal.NewUpstreamError("failed to load reporting data", err)
	}

	type bucket struct {
		label        string
		sortKey      string
		reservations int
		revenue      decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for _, row := range rows {
		label, sortKey := bucketKey(query, row.CheckIn)
		b, ok := buckets[sortKey]
		if !ok {
			b = &bucket{label: label, sortKey: sortKey, revenue: decimal.Zero}
			buckets[sortKey] = b
		}
		b.reservations++
		b.revenue = b.revenue.Add(row.TotalAmount)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].sortKey < ordered[j].sortKey
	})

	resp := &TrendResponse{
		Granularity: query.Granularity,
		From:        query.From.Format("2006-01-02"),
		To:          query.To.Format("2006-01-02"),
		Buckets:     make([]TrendBucket, 0, len(ordered)),
	}
	for _, b := range ordered {
		resp.Buckets = append(resp.Buckets, TrendBucket{
			PeriodLabel:  b.label,
			Reservations: b.reservations,
			Revenue:      b.revenue,
		})
	}
	return resp, nil
}

// bucketKey maps a check-in date to its bucket label and a lexically sortable
// key. Labels and keys coincide except for custom, where the whole range is a
// single bucket.
func bucketKey(query TrendQuery, checkIn time.Time) (label, sortKey string) {
	switch query.Granularity {
	case GranularityDay:
		k := checkIn.Format("2006-01-02")
		return k, k
	case GranularityWeek:
		year, week := checkIn.ISOWeek()
		k := fmt.Sprintf("%04d-W%02d", year, week)
		return k, k
	case GranularityMonth:
		k := checkIn.Format("2006-01")
		return k, k
	case GranularityYear:
		k := checkIn.Format("2006")
		return k, k
	default:
		k := query.From.Format("2006-01-02") + ".." + query.To.Format("2006-01-02")
		return k, k
	}
}

// PropertySummaries aggregates booked revenue per property over a range,
// ordered by revenue descending.
func (s *Service) PropertySummaries(from, to time.Time) (*PropertySummaryResponse, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, internal.NewValidationFieldError("range", "from must be before to", internal.ErrCodeValidationFailed)
	}

	rows, err := s.repo.ListBookedRows(from, to)
	if err != nil {
		s.logger.Error("failed to load reporting rows", "error", err)
		return nil, internal.NewUpstreamError("failed to load reporting data", err)
	}

	type agg struct {
		reservations int
		revenue      decimal.Decimal
		stayDays     int64
	}
	byProperty := make(map[int64]*agg)

	for _, row := range rows {
		a, ok := byProperty[row.PropertyID]
		if !ok {
			a = &agg{revenue: decimal.Zero}
			byProperty[row.PropertyID] = a
		}
		a.reservations++
		a.revenue = a.revenue.Add(row.TotalAmount)
		a.stayDays += int64(row.CheckOut.Sub(row.CheckIn).Hours() / 24)
	}

	properties := make([]PropertySummary, 0, len(byProperty))
	for propertyID, a := range byProperty {
		avgStay := decimal.Zero
		if a.reservations > 0 {
			avgStay = decimal.NewFromInt(a.stayDays).
				Div(decimal.NewFromInt(int64(a.reservations))).Round(1)
		}
		properties = append(properties, PropertySummary{
			PropertyID:   propertyID,
			Reservations: a.reservations,
			Revenue:      a.revenue,
			AvgStayDays:  avgStay,
		})
	}

	sort.Slice(properties, func(i, j int) bool {
		if !properties[i].Revenue.Equal(properties[j].Revenue) {
			return properties[i].Revenue.GreaterThan(properties[j].Revenue)
		}
		return properties[i].PropertyID < properties[j].PropertyID
	})

	return &PropertySummaryResponse{
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		Properties: properties,
	}, nil
}
