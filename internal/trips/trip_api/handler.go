package trip_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/trips"
	"ms-booking/internal/utils"
)

type Handler struct {
	TripService *trips.Service
	Logger      *logger.Logger
}

func NewHandler(tripService *trips.Service, log *logger.Logger) *Handler {
	return &Handler{TripService: tripService, Logger: log}
}

type createTripRequest struct {
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	Price         decimal.Decimal `json:"price"`
	TotalSeats    int             `json:"total_seats"`
}

func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	available, err := h.TripService.ListAvailable(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTrips: %v", err))
		utils.WriteServiceError(w, "Could not load trips", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Trips", available))
}

func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid trip id", err.Error()))
		return
	}

	trip, err := h.TripService.Get(r.Context(), tripID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTrip: trip=%d: %v", tripID, err))
		utils.WriteServiceError(w, "Could not load trip", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Trip", trip))
}

func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTrip: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	trip, err := h.TripService.Create(r.Context(), fmt.Sprintf("user:%d", userID), trips.CreateParams{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		TotalSeats:    req.TotalSeats,
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateTrip: %v", err))
		utils.WriteServiceError(w, "Could not create trip", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateTrip: trip %d %s -> %s", trip.ID, trip.Origin, trip.Destination))
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Trip created", trip))
}

func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid trip id", err.Error()))
		return
	}

	if err := h.TripService.Delete(r.Context(), fmt.Sprintf("user:%d", userID), tripID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteTrip: trip=%d: %v", tripID, err))
		utils.WriteServiceError(w, "Could not delete trip", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("DeleteTrip: trip %d deleted", tripID))
	w.WriteHeader(http.StatusNoContent)
}
