package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Store is the ledger store: the only source of truth for trips, seats,
// tickets, users and transaction history. Every method takes a bun.IDB so
// it runs against the pool or inside an enclosing transaction, whichever
// the caller passes.
type Store struct{}

// IsPostgres reports whether idb speaks the postgres dialect. Row-locking
// clauses are only emitted there; the in-memory sqlite test databases have
// a single writer and no FOR UPDATE syntax.
func IsPostgres(idb bun.IDB) bool {
	return idb.Dialect().Name() == dialect.PG
}

// ---------------- TRIPS ----------------

func (s Store) Trip(ctx context.Context, idb bun.IDB, tripID int64) (*models.Trip, error) {
	var trip models.Trip
	err := idb.NewSelect().
		Model(&trip).
		Where("id = ?", tripID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// AdjustAvailableSeats applies a relative change to a trip's available
// seat counter. Must run inside the same unit as the seat status change
// it mirrors.
func (s Store) AdjustAvailableSeats(ctx context.Context, idb bun.IDB, tripID int64, delta int) error {
	_, err := idb.NewUpdate().
		Model((*models.Trip)(nil)).
		Set("available_seats = available_seats + ?", delta).
		Where("id = ?", tripID).
		Exec(ctx)
	return err
}

// ---------------- USERS ----------------

func (s Store) User(ctx context.Context, idb bun.IDB, userID int64) (*models.User, error) {
	var user models.User
	err := idb.NewSelect().
		Model(&user).
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ---------------- SEATS ----------------

func (s Store) Seat(ctx context.Context, idb bun.IDB, seatID int64) (*models.Seat, error) {
	var seat models.Seat
	err := idb.NewSelect().
		Model(&seat).
		Where("id = ?", seatID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (s Store) SeatsByTrip(ctx context.Context, idb bun.IDB, tripID int64) ([]models.Seat, error) {
	var seats []models.Seat
	err := idb.NewSelect().
		Model(&seats).
		Where("trip_id = ?", tripID).
		Order("seat_number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// ---------------- TICKETS ----------------

func (s Store) CreateTicket(ctx context.Context, idb bun.IDB, ticket *models.Ticket) error {
	_, err := idb.NewInsert().Model(ticket).Exec(ctx)
	return err
}

// TicketForUpdate loads a ticket scoped to its owner, locking the row on
// postgres so concurrent cancellations of the same ticket serialize.
// Ownership is enforced in the query itself: a ticket belonging to another
// user is indistinguishable from a missing one.
func (s Store) TicketForUpdate(ctx context.Context, idb bun.IDB, ticketID string, userID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	q := idb.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Where("user_id = ?", userID).
		Limit(1)
	if IsPostgres(idb) {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Ticket loads a ticket scoped to its owner without locking.
func (s Store) Ticket(ctx context.Context, idb bun.IDB, ticketID string, userID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := idb.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkTicketCancelled flips a ticket to CANCELLED, guarded on a still-
// cancellable status. Returns the number of rows changed; zero means a
// concurrent cancellation won the race.
func (s Store) MarkTicketCancelled(ctx context.Context, idb bun.IDB, ticketID string, now time.Time) (int64, error) {
	res, err := idb.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketCancelled).
		Set("cancelled_at = ?", now).
		Where("ticket_id = ?", ticketID).
		Where("status IN (?)", bun.In([]models.TicketStatus{models.TicketReserved, models.TicketPaid})).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateTicketStatus sets a ticket's status unconditionally. Used by the
// external collaborators that confirm payment (PAID) or mark boarding
// (USED); the booking workflow itself never calls it.
func (s Store) UpdateTicketStatus(ctx context.Context, idb bun.IDB, ticketID string, status models.TicketStatus) error {
	_, err := idb.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", status).
		Where("ticket_id = ?", ticketID).
		Exec(ctx)
	return err
}

func (s Store) TicketsByUser(ctx context.Context, idb bun.IDB, userID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := idb.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
