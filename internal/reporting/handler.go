package reporting

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/reservation-management/internal/transport"
	"github.com/frahmantamala/reservation-management/pkg/logger"
)

type ServiceAPI interface {
	RevenueTrend(query TrendQuery) (*TrendResponse, error)
	PropertySummaries(from, to time.Time) (*PropertySummaryResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// RevenueTrend handles GET /reports/revenue-trend. Defaults: month
// granularity over the trailing year.
func (h *Handler) RevenueTrend(w http.ResponseWriter, r *http.Request) {
	granularity := r.URL.Query().Get("granularity")
	if granularity == "" {
		granularity = GranularityMonth
	}

	from, to, ok := parseDateRange(r, time.Now().AddDate(-1, 0, 0), time.Now())
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid from/to date, expected YYYY-MM-DD")
		return
	}

	trend, err := h.Service.RevenueTrend(TrendQuery{
		Granularity: granularity,
		From:        from,
		To:          to,
	})
	if err != nil {
		h.Logger.Error("RevenueTrend: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, trend)
}

// PropertySummary handles GET /reports/property-summary.
func (h *Handler) PropertySummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseDateRange(r, time.Now().AddDate(-1, 0, 0), time.Now())
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid from/to date, expected YYYY-MM-DD")
		return
	}

	summary, err := h.Service.PropertySummaries(from, to)
	if err != nil {
		h.Logger.Error("PropertySummary: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func parseDateRange(r *http.Request, defaultFrom, defaultTo time.Time) (from, to time.Time, ok bool) {
	from, to = defaultFrom, defaultTo

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	return from, to, true
}
