package reservation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	internal "github.com/frahmantamala/reservation-management/internal"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/transport"
	"github.com/frahmantamala/reservation-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(id int64) (*reservationDatamodel.Reservation, error)
	ListByHost(hostID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error)
	ListByGuest(guestID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error)
	ListByProperty(propertyID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error)
	UpdateStatus(reservationID int64, dto UpdateStatusDTO) (*reservationDatamodel.Reservation, error)
	UpdatePaymentStatus(reservationID int64, dto UpdatePaymentStatusDTO) (*reservationDatamodel.Reservation, error)
	UpsertAdditionalServices(reservationID int64, dto UpsertServicesDTO) (*reservationDatamodel.Reservation, error)
	RequestCancellation(reservationID int64, dto RequestCancellationDTO) (*reservationDatamodel.Reservation, error)
	ApproveCancellation(reservationID, adminID int64) (*reservationDatamodel.Reservation, error)
	RejectCancellation(reservationID, adminID int64, dto RejectCancellationDTO) (*reservationDatamodel.Reservation, error)
	Confirm(reservationID, hostID int64) (*reservationDatamodel.Reservation, error)
	Refuse(reservationID, hostID int64) (*reservationDatamodel.Reservation, error)
	CheckAvailability(dto AvailabilityDTO) (bool, error)
	CleanupExpired(today time.Time) (int64, error)
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

func (h *Handler) reservationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	res, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ListHostReservations(w http.ResponseWriter, r *http.Request) {
	hostID, err := strconv.ParseInt(chi.URLParam(r, "hostID"), 10, 64)
	if err != nil || hostID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid host id")
		return
	}

	limit, offset := parsePagination(r)

	reservations, err := h.Service.ListByHost(hostID, limit, offset)
	if err != nil {
		h.Logger.Error("ListHostReservations: service error", "error", err, "host_id", hostID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) ListGuestReservations(w http.ResponseWriter, r *http.Request) {
	guestID, err := strconv.ParseInt(chi.URLParam(r, "guestID"), 10, 64)
	if err != nil || guestID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid guest id")
		return
	}

	limit, offset := parsePagination(r)

	reservations, err := h.Service.ListByGuest(guestID, limit, offset)
	if err != nil {
		h.Logger.Error("ListGuestReservations: service error", "error", err, "guest_id", guestID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) ListPropertyReservations(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil || propertyID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid property id")
		return
	}

	limit, offset := parsePagination(r)

	reservations, err := h.Service.ListByProperty(propertyID, limit, offset)
	if err != nil {
		h.Logger.Error("ListPropertyReservations: service error", "error", err, "property_id", propertyID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.UpdateStatus(id, dto)
	if err != nil {
		h.Logger.Error("UpdateStatus: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var dto UpdatePaymentStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdatePaymentStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.UpdatePaymentStatus(id, dto)
	if err != nil {
		h.Logger.Error("UpdatePaymentStatus: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) UpsertServices(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var dto UpsertServicesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpsertServices: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Service.UpsertAdditionalServices(id, dto)
	if err != nil {
		h.Logger.Error("UpsertServices: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var dto RequestCancellationDTO
	if r.Body != nil {
		// reason is optional; an empty body is fine
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	res, err := h.Service.RequestCancellation(id, dto)
	if err != nil {
		h.Logger.Error("RequestCancellation: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ApproveCancellation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	adminID := internal.ActorIDFromContext(r.Context())

	res, err := h.Service.ApproveCancellation(id, adminID)
	if err != nil {
		h.Logger.Error("ApproveCancellation: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) RejectCancellation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var dto RejectCancellationDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	adminID := internal.ActorIDFromContext(r.Context())

	res, err := h.Service.RejectCancellation(id, adminID, dto)
	if err != nil {
		h.Logger.Error("RejectCancellation: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	hostID := internal.ActorIDFromContext(r.Context())

	res, err := h.Service.Confirm(id, hostID)
	if err != nil {
		h.Logger.Error("ConfirmReservation: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) RefuseReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reservationID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	hostID := internal.ActorIDFromContext(r.Context())

	res, err := h.Service.Refuse(id, hostID)
	if err != nil {
		h.Logger.Error("RefuseReservation: service error", "error", err, "reservation_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, res)
}

// CheckAvailability answers a property/date-range probe. Dates come in as
// query params in YYYY-MM-DD form.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(r.URL.Query().Get("property_id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid property_id")
		return
	}

	checkIn, err := time.Parse("2006-01-02", r.URL.Query().Get("check_in"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid check_in date, expected YYYY-MM-DD")
		return
	}

	checkOut, err := time.Parse("2006-01-02", r.URL.Query().Get("check_out"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid check_out date, expected YYYY-MM-DD")
		return
	}

	available, err := h.Service.CheckAvailability(AvailabilityDTO{
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
	if err != nil {
		h.Logger.Error("CheckAvailability: service error", "error", err, "property_id", propertyID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AvailabilityResponse{Available: available})
}

func (h *Handler) CleanupExpired(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Service.CleanupExpired(time.Now())
	if err != nil {
		h.Logger.Error("CleanupExpired: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CleanupResponse{Deleted: deleted})
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
