// Package booking orchestrates the seat allocator, the wallet and ticket
// creation into all-or-nothing booking and cancellation workflows. All
// writes of one booking or one cancellation happen inside a single
// transaction; audit, events and cache updates happen strictly after
// commit and never unwind it.
package booking

import (
	"context"
	"fmt"
	"time"

	"ms-booking/internal/booking/db"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// refundRate is the fixed cancellation policy: 80% of the price comes
// back, the retained 20% stays implicit in the PURCHASE/REFUND pair and
// is never written as a separate ledger row.
var refundRate = decimal.New(8, -1)

// WalletOps is the slice of the wallet the workflows need. Both calls
// participate in the enclosing transaction through the bun.IDB argument.
type WalletOps interface {
	Debit(ctx context.Context, idb bun.IDB, userID int64, amount decimal.Decimal, txnType models.TransactionType, description string) (decimal.Decimal, error)
	Credit(ctx context.Context, idb bun.IDB, userID int64, amount decimal.Decimal, txnType models.TransactionType, description string) (decimal.Decimal, error)
}

// SeatCache is the advisory fast path: a seat marked reserved fails a
// booking before the row lock is taken. It is never authoritative - cache
// misses and cache errors always fall through to the database.
type SeatCache interface {
	IsReserved(ctx context.Context, tripID int64, seatNumber int) (bool, error)
	MarkReserved(ctx context.Context, tripID int64, seatNumber int) error
	MarkAvailable(ctx context.Context, tripID int64, seatNumber int) error
}

// Recorder appends audit records after a completed operation.
type Recorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Service struct {
	DB     *bun.DB
	Store  db.Store
	Seats  Allocator
	Wallet WalletOps
	Cache  SeatCache
	Audit  Recorder
	Logger *logger.Logger
}

func NewService(bunDB *bun.DB, wallet WalletOps, cache SeatCache, audit Recorder, log *logger.Logger) *Service {
	return &Service{
		DB:     bunDB,
		Store:  db.Store{},
		Seats:  Allocator{},
		Wallet: wallet,
		Cache:  cache,
		Audit:  audit,
		Logger: log,
	}
}

// Book reserves the given seat on the trip for the user, charges the
// trip price from their wallet and issues a RESERVED ticket, atomically.
// The trip, seat-count and balance checks up front are fast paths to
// avoid taking the row lock for doomed requests; the authoritative checks
// are the seat row lock and the wallet's re-read inside the transaction.
func (s *Service) Book(ctx context.Context, userID, tripID int64, seatNumber int) (*models.Ticket, error) {
	trip, err := s.Store.Trip(ctx, s.DB, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripScheduled || trip.HasStarted() {
		return nil, models.ErrTripNotAvailable
	}
	if trip.AvailableSeats <= 0 {
		return nil, models.ErrSeatUnavailable
	}
	if s.Cache != nil {
		if reserved, err := s.Cache.IsReserved(ctx, tripID, seatNumber); err == nil && reserved {
			s.Logger.Debug("BOOKING", fmt.Sprintf("seat %d on trip %d reserved per cache, skipping row lock", seatNumber, tripID))
			return nil, models.ErrSeatUnavailable
		}
	}

	user, err := s.Store.User(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if user.WalletBalance.LessThan(trip.Price) {
		return nil, models.ErrInsufficientBalance
	}

	ticket := &models.Ticket{
		TicketID:  uuid.NewString(),
		UserID:    userID,
		TripID:    tripID,
		Price:     trip.Price,
		Status:    models.TicketReserved,
		CreatedAt: time.Now(),
	}

	err = s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// First mutating statement: the seat row lock taken here covers
		// everything below until commit.
		seatID, err := s.Seats.Reserve(ctx, tx, tripID, seatNumber)
		if err != nil {
			return err
		}
		ticket.SeatID = seatID

		if err := s.Store.CreateTicket(ctx, tx, ticket); err != nil {
			return err
		}

		description := fmt.Sprintf("Ticket for trip %d, seat %d", tripID, seatNumber)
		if _, err := s.Wallet.Debit(ctx, tx, userID, trip.Price, models.TxnPurchase, description); err != nil {
			return err
		}

		return s.Store.AdjustAvailableSeats(ctx, tx, tripID, -1)
	})
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.MarkReserved(ctx, tripID, seatNumber); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("failed to mark seat %d on trip %d reserved: %v", seatNumber, tripID, err))
		}
	}
	s.Audit.Record(ctx, user.Username, "BOOK_TICKET", fmt.Sprintf("Ticket booked for trip %d, seat %d", tripID, seatNumber))
	s.Logger.LogBooking("BOOK_TICKET", ticket.TicketID, fmt.Sprintf("user %d booked seat %d on trip %d", userID, seatNumber, tripID))

	return ticket, nil
}

// Cancel cancels the user's ticket before departure and refunds 80% of
// the price paid. Loading the ticket row locked inside the unit makes two
// concurrent cancellations mutually exclusive: the loser observes status
// CANCELLED and fails with ErrTicketNotCancellable instead of refunding
// twice. The original PURCHASE transaction is never touched.
func (s *Service) Cancel(ctx context.Context, ticketID string, userID int64) (decimal.Decimal, error) {
	var refund decimal.Decimal
	var tripID int64
	var seatNumber int

	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ticket, err := s.Store.TicketForUpdate(ctx, tx, ticketID, userID)
		if err != nil {
			return err
		}

		trip, err := s.Store.Trip(ctx, tx, ticket.TripID)
		if err != nil {
			return err
		}
		if trip.HasStarted() || !ticket.CanCancel() {
			return models.ErrTicketNotCancellable
		}

		refund = ticket.Price.Mul(refundRate).Round(2)

		affected, err := s.Store.MarkTicketCancelled(ctx, tx, ticketID, time.Now())
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.ErrTicketNotCancellable
		}

		if err := s.Seats.Release(ctx, tx, ticket.SeatID); err != nil {
			return err
		}

		seat, err := s.Store.Seat(ctx, tx, ticket.SeatID)
		if err != nil {
			return err
		}
		tripID = ticket.TripID
		seatNumber = seat.SeatNumber

		if err := s.Store.AdjustAvailableSeats(ctx, tx, ticket.TripID, 1); err != nil {
			return err
		}

		description := fmt.Sprintf("Cancellation of ticket %s", ticketID)
		_, err = s.Wallet.Credit(ctx, tx, userID, refund, models.TxnRefund, description)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	if s.Cache != nil {
		if err := s.Cache.MarkAvailable(ctx, tripID, seatNumber); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("failed to mark seat %d on trip %d available: %v", seatNumber, tripID, err))
		}
	}
	actor := fmt.Sprintf("user:%d", userID)
	if user, err := s.Store.User(ctx, s.DB, userID); err == nil {
		actor = user.Username
	}
	s.Audit.Record(ctx, actor, "CANCEL_TICKET", fmt.Sprintf("Ticket %s cancelled, refund: %s", ticketID, refund))
	s.Logger.LogBooking("CANCEL_TICKET", ticketID, fmt.Sprintf("user %d refunded %s", userID, refund))

	return refund, nil
}

// TicketsForUser lists the user's tickets, newest first.
func (s *Service) TicketsForUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	return s.Store.TicketsByUser(ctx, s.DB, userID)
}

// Ticket fetches a single ticket scoped to its owner. Other users get
// ErrTicketNotFound rather than a hint that the ticket exists.
func (s *Service) Ticket(ctx context.Context, ticketID string, userID int64) (*models.Ticket, error) {
	return s.Store.Ticket(ctx, s.DB, ticketID, userID)
}
