package utils

import (
	"errors"
	"net/http"

	"ms-booking/internal/models"
)

// StatusForError maps the service error set onto HTTP status codes.
// Unknown errors fall through to 500 so internal detail never picks up a
// client-facing status by accident.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrTripNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrSeatUnavailable),
		errors.Is(err, models.ErrTripNotAvailable),
		errors.Is(err, models.ErrTicketNotCancellable),
		errors.Is(err, models.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError maps err onto a status and writes the error envelope.
// Errors outside the service set carry a generic detail string; the real
// error stays in the caller's log only.
func WriteServiceError(w http.ResponseWriter, message string, err error) {
	status := StatusForError(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal error"
	}
	WriteJSON(w, status, ErrorResponse(message, detail))
}
