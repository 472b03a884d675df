package reporting

import (
	"time"

	errors "github.com/frahmantamala/reservation-management/internal"
	"github.com/shopspring/decimal"
)

// Trend bucket granularities. Custom collapses the whole range into one
// bucket.
const (
	GranularityDay    = "day"
	GranularityWeek   = "week"
	GranularityMonth  = "month"
	GranularityYear   = "year"
	GranularityCustom = "custom"
)

type TrendQuery struct {
	Granularity string
	From        time.Time
	To          time.Time
}

func (q TrendQuery) Validate() error {
	switch q.Granularity {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear, GranularityCustom:
	default:
		return errors.NewValidationFieldError("granularity", "granularity must be one of day, week, month, year, custom", errors.ErrCodeValidationFailed)
	}
	if q.From.IsZero() || q.To.IsZero() {
		return errors.NewValidationFieldError("range", "from and to dates are required", errors.ErrCodeValidationFailed)
	}
	if !q.From.Before(q.To) {
		return errors.NewValidationFieldError("range", "from must be before to", errors.ErrCodeValidationFailed)
	}
	return nil
}

// TrendBucket is one point in the revenue trend, keyed by the stay's check-in
// date.
type TrendBucket struct {
	PeriodLabel  string          `json:"period_label"`
	Reservations int             `json:"reservations"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type TrendResponse struct {
	Granularity string        `json:"granularity"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Buckets     []TrendBucket `json:"buckets"`
}

// PropertySummary aggregates one property's booked revenue over a range.
type PropertySummary struct {
	PropertyID   int64           `json:"property_id"`
	Reservations int             `json:"reservations"`
	Revenue      decimal.Decimal `json:"revenue"`
	AvgStayDays  decimal.Decimal `json:"avg_stay_days"`
}

type PropertySummaryResponse struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Properties []PropertySummary `json:"properties"`
}
