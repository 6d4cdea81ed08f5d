package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/tickets/qr"
	"ms-booking/internal/utils"
)

type Handler struct {
	BookingService *booking.Service
	QR             *qr.Generator
	Logger         *logger.Logger
}

func NewHandler(bookingService *booking.Service, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: bookingService,
		QR:             qrGen,
		Logger:         log,
	}
}

type bookingRequest struct {
	TripID     int64 `json:"trip_id"`
	SeatNumber int   `json:"seat_number"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateBooking: user=%d trip=%d seat=%d", userID, req.TripID, req.SeatNumber))

	ticket, err := h.BookingService.Book(r.Context(), userID, req.TripID, req.SeatNumber)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: %v", err))
		utils.WriteServiceError(w, "Booking failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Seat booked", ticket))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	ticketID := chi.URLParam(r, "ticketId")
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: user=%d ticket=%s", userID, ticketID))

	refund, err := h.BookingService.Cancel(r.Context(), ticketID, userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		utils.WriteServiceError(w, "Cancellation failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket cancelled", map[string]interface{}{
		"ticket_id": ticketID,
		"refund":    refund,
	}))
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	tickets, err := h.BookingService.TicketsForUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyTickets: %v", err))
		utils.WriteServiceError(w, "Could not load tickets", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Tickets", tickets))
}

// TicketQR streams the boarding pass as a PNG. Only the ticket's owner
// can fetch it.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "missing user identity"))
		return
	}

	ticketID := chi.URLParam(r, "ticketId")
	ticket, err := h.BookingService.Ticket(r.Context(), ticketID, userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TicketQR: %v", err))
		utils.WriteServiceError(w, "Could not load ticket", err)
		return
	}

	png, err := h.QR.GenerateEncryptedQR(*ticket)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TicketQR: failed to generate QR: %v", err))
		utils.WriteServiceError(w, "Could not generate QR", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
