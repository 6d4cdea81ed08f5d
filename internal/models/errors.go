package models

import "errors"

// The closed set of failures the booking, wallet, trip and auth services
// return. Callers match with errors.Is; anything outside this set is an
// internal failure and must not leak detail to users.
var (
	ErrTripNotFound     = errors.New("trip not found")
	ErrTripNotAvailable = errors.New("trip is not available for booking")
	ErrSeatUnavailable  = errors.New("seat not available")

	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketNotCancellable = errors.New("ticket cannot be cancelled")

	ErrValidation = errors.New("validation failed")

	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
