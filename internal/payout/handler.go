package payout

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	payoutDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/payout"
	"github.com/frahmantamala/reservation-management/internal/transport"
	"github.com/frahmantamala/reservation-management/pkg/logger"
)

type ServiceAPI interface {
	CalculateHostPayments(month, year int) (*CalculateResponse, error)
	MarkPaymentAsPaid(id int64, dto MarkPaidDTO) (*payoutDatamodel.HostPayment, error)
	GetHostPayment(id int64) (*payoutDatamodel.HostPayment, error)
	ListHostPayments(limit, offset int) ([]*payoutDatamodel.HostPayment, error)
	ListByHost(hostID int64, limit, offset int) ([]*payoutDatamodel.HostPayment, error)
	GetDetails(hostPaymentID int64) ([]*payoutDatamodel.HostPaymentDetail, error)
	GetHostStats(hostID int64, fromMonth, fromYear, toMonth, toYear int) (*HostStats, error)
	GetAppStats(fromMonth, fromYear, toMonth, toYear int) (*AppStats, error)
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

// Calculate triggers the payout run for a month. Missing month/year default
// to the previous calendar month.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var dto CalculateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Error("Calculate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if dto.Month == 0 && dto.Year == 0 {
		dto.Month, dto.Year = PreviousPeriod(time.Now())
	}

	summary, err := h.Service.CalculateHostPayments(dto.Month, dto.Year)
	if err != nil {
		h.Logger.Error("Calculate: service error", "error", err, "month", dto.Month, "year", dto.Year)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	payments, err := h.Service.ListHostPayments(limit, offset)
	if err != nil {
		h.Logger.Error("ListPayments: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) ListHostPayments(w http.ResponseWriter, r *http.Request) {
	hostID, err := strconv.ParseInt(chi.URLParam(r, "hostID"), 10, 64)
	if err != nil || hostID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid host id")
		return
	}

	limit, offset := parsePagination(r)

	payments, err := h.Service.ListByHost(hostID, limit, offset)
	if err != nil {
		h.Logger.Error("ListHostPayments: service error", "error", err, "host_id", hostID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	payment, err := h.Service.GetHostPayment(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payment)
}

func (h *Handler) GetPaymentDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	details, err := h.Service.GetDetails(id)
	if err != nil {
		h.Logger.Error("GetPaymentDetails: service error", "error", err, "host_payment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"details": details,
	})
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	var dto MarkPaidDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("MarkPaid: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.Service.MarkPaymentAsPaid(id, dto)
	if err != nil {
		h.Logger.Error("MarkPaid: service error", "error", err, "host_payment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payment)
}

func (h *Handler) GetHostStats(w http.ResponseWriter, r *http.Request) {
	hostID, err := strconv.ParseInt(chi.URLParam(r, "hostID"), 10, 64)
	if err != nil || hostID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid host id")
		return
	}

	fromMonth, fromYear, toMonth, toYear, ok := parsePeriodRange(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid period range")
		return
	}

	stats, err := h.Service.GetHostStats(hostID, fromMonth, fromYear, toMonth, toYear)
	if err != nil {
		h.Logger.Error("GetHostStats: service error", "error", err, "host_id", hostID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetAppStats(w http.ResponseWriter, r *http.Request) {
	fromMonth, fromYear, toMonth, toYear, ok := parsePeriodRange(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid period range")
		return
	}

	stats, err := h.Service.GetAppStats(fromMonth, fromYear, toMonth, toYear)
	if err != nil {
		h.Logger.Error("GetAppStats: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

// parsePeriodRange reads from_month/from_year/to_month/to_year query params,
// defaulting to the current month when absent.
func parsePeriodRange(r *http.Request) (fromMonth, fromYear, toMonth, toYear int, ok bool) {
	now := time.Now()
	fromMonth, fromYear = int(now.Month()), now.Year()
	toMonth, toYear = fromMonth, fromYear

	read := func(name string, dst *int) bool {
		if v := r.URL.Query().Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return false
			}
			*dst = n
		}
		return true
	}

	if !read("from_month", &fromMonth) || !read("from_year", &fromYear) ||
		!read("to_month", &toMonth) || !read("to_year", &toYear) {
		return 0, 0, 0, 0, false
	}

	if fromMonth < 1 || fromMonth > 12 || toMonth < 1 || toMonth > 12 {
		return 0, 0, 0, 0, false
	}
	return fromMonth, fromYear, toMonth, toYear, true
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
