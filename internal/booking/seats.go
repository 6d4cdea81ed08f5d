package booking

import (
	"context"
	"database/sql"
	"errors"

	"ms-booking/internal/booking/db"
	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

// Allocator transitions seats between available and reserved. Reserve must
// be the first mutating statement of a booking unit: the row lock it takes
// covers the rest of the booking logic until commit or rollback.
type Allocator struct{}

// Reserve locks the (trip, seat_number) row in status available and flips
// it to reserved, returning the seat id. Two concurrent reservations of
// the same seat serialize on the row lock; the loser finds no available
// row and gets ErrSeatUnavailable. Reservations of different seats never
// block each other - the lock granularity is the seat row, not the trip.
func (a Allocator) Reserve(ctx context.Context, idb bun.IDB, tripID int64, seatNumber int) (int64, error) {
	var seat models.Seat
	q := idb.NewSelect().
		Model(&seat).
		Where("trip_id = ?", tripID).
		Where("seat_number = ?", seatNumber).
		Where("status = ?", models.SeatAvailable).
		Limit(1)
	if db.IsPostgres(idb) {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, models.ErrSeatUnavailable
		}
		return 0, err
	}

	res, err := idb.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("status = ?", models.SeatReserved).
		Where("id = ?", seat.ID).
		Where("status = ?", models.SeatAvailable).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		// The guarded update is the authority even where no row lock was
		// taken: someone else flipped the seat first.
		return 0, models.ErrSeatUnavailable
	}
	return seat.ID, nil
}

// Release puts a seat back into the available pool. Releasing a seat that
// is already available is a no-op, not an error.
func (a Allocator) Release(ctx context.Context, idb bun.IDB, seatID int64) error {
	_, err := idb.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("status = ?", models.SeatAvailable).
		Where("id = ?", seatID).
		Exec(ctx)
	return err
}
