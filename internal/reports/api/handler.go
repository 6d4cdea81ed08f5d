package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/logger"
	"ms-booking/internal/reports"
	"ms-booking/internal/utils"
)

type Handler struct {
	ReportService *reports.Service
	Logger        *logger.Logger
}

func NewHandler(reportService *reports.Service, log *logger.Logger) *Handler {
	return &Handler{ReportService: reportService, Logger: log}
}

func (h *Handler) TotalRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.ReportService.TotalRevenue(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TotalRevenue: %v", err))
		utils.WriteServiceError(w, "Could not compute revenue", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Total revenue", map[string]interface{}{
		"revenue": revenue,
	}))
}

func (h *Handler) TripRevenue(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid trip id", err.Error()))
		return
	}

	revenue, err := h.ReportService.TripRevenue(r.Context(), tripID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TripRevenue: trip=%d: %v", tripID, err))
		utils.WriteServiceError(w, "Could not compute revenue", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Trip revenue", map[string]interface{}{
		"trip_id": tripID,
		"revenue": revenue,
	}))
}

func (h *Handler) TripStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ReportService.GetTripStats(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TripStats: %v", err))
		utils.WriteServiceError(w, "Could not compute trip stats", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Trip stats", stats))
}

func (h *Handler) TicketStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ReportService.GetTicketStats(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TicketStats: %v", err))
		utils.WriteServiceError(w, "Could not compute ticket stats", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket stats", stats))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.ReportService.ListUsers(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: %v", err))
		utils.WriteServiceError(w, "Could not load users", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Users", users))
}
