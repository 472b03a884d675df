package commission

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/reservation-management/internal/transport"
	"github.com/frahmantamala/reservation-management/pkg/logger"
	"github.com/shopspring/decimal"
)

type ServiceAPI interface {
	GetActiveRate() (decimal.Decimal, error)
	SetActiveRate(dto UpdateRateDTO) (*Setting, error)
	History(limit, offset int) ([]*Setting, error)
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

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Service.GetActiveRate()
	if err != nil {
		h.Logger.Error("GetRate: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RateResponse{CommissionPercentage: rate})
}

func (h *Handler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	var dto UpdateRateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateRate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setting, err := h.Service.SetActiveRate(dto)
	if err != nil {
		h.Logger.Error("UpdateRate: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("UpdateRate: commission rate updated",
		"setting_id", setting.ID,
		"percentage", setting.CommissionPercentage.String())

	h.WriteJSON(w, http.StatusOK, setting)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

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

	history, err := h.Service.History(limit, offset)
	if err != nil {
		h.Logger.Error("GetHistory: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"settings": history,
		"limit":    limit,
		"offset":   offset,
	})
}
