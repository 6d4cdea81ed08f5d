package booking_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/wallet"
)

type noopRecorder struct{}

func (noopRecorder) Record(ctx context.Context, actor, action, details string) {}

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.User)(nil),
		(*models.Trip)(nil),
		(*models.Seat)(nil),
		(*models.Ticket)(nil),
		(*models.Transaction)(nil),
		(*models.AuditRecord)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func newTestService(t *testing.T, bunDB *bun.DB) *booking.Service {
	t.Helper()
	walletService := wallet.NewWallet(bunDB, noopRecorder{})
	return booking.NewService(bunDB, walletService, nil, noopRecorder{}, logger.NewLogger())
}

func seedUser(t *testing.T, bunDB *bun.DB, username string, balance decimal.Decimal) *models.User {
	t.Helper()
	user := &models.User{
		Username:      username,
		PasswordHash:  "x",
		WalletBalance: balance,
		Role:          models.RoleUser,
		CreatedAt:     time.Now(),
	}
	_, err := bunDB.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func seedTrip(t *testing.T, bunDB *bun.DB, price decimal.Decimal, seats int, departure time.Time) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		Origin:         "Springfield",
		Destination:    "Shelbyville",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(2 * time.Hour),
		Price:          price,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         models.TripScheduled,
		CreatedAt:      time.Now(),
	}
	_, err := bunDB.NewInsert().Model(trip).Exec(context.Background())
	require.NoError(t, err)

	for i := 1; i <= seats; i++ {
		seat := &models.Seat{
			TripID:     trip.ID,
			SeatNumber: i,
			Status:     models.SeatAvailable,
		}
		_, err := bunDB.NewInsert().Model(seat).Exec(context.Background())
		require.NoError(t, err)
	}
	return trip
}

func userBalance(t *testing.T, bunDB *bun.DB, userID int64) decimal.Decimal {
	t.Helper()
	user := new(models.User)
	err := bunDB.NewSelect().Model(user).Where("id = ?", userID).Scan(context.Background())
	require.NoError(t, err)
	return user.WalletBalance
}

func availableSeatCount(t *testing.T, bunDB *bun.DB, tripID int64) int {
	t.Helper()
	count, err := bunDB.NewSelect().
		Model((*models.Seat)(nil)).
		Where("trip_id = ?", tripID).
		Where("status = ?", models.SeatAvailable).
		Count(context.Background())
	require.NoError(t, err)
	return count
}

func tripAvailableSeats(t *testing.T, bunDB *bun.DB, tripID int64) int {
	t.Helper()
	trip := new(models.Trip)
	err := bunDB.NewSelect().Model(trip).Where("id = ?", tripID).Scan(context.Background())
	require.NoError(t, err)
	return trip.AvailableSeats
}

func TestBookSeat(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	ticket, err := svc.Book(ctx, user.ID, trip.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TicketReserved, ticket.Status)
	assert.Equal(t, user.ID, ticket.UserID)
	assert.True(t, ticket.Price.Equal(decimal.NewFromInt(50)))

	assert.True(t, userBalance(t, bunDB, user.ID).Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, tripAvailableSeats(t, bunDB, trip.ID))
	assert.Equal(t, 1, availableSeatCount(t, bunDB, trip.ID))

	var txns []models.Transaction
	err = bunDB.NewSelect().Model(&txns).Where("user_id = ?", user.ID).Scan(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxnPurchase, txns[0].Type)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(-50)))
}

func TestBookSameSeatTwice(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	alice := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	bob := seedUser(t, bunDB, "bob", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	_, err := svc.Book(ctx, alice.ID, trip.ID, 1)
	require.NoError(t, err)

	_, err = svc.Book(ctx, bob.ID, trip.ID, 1)
	assert.ErrorIs(t, err, models.ErrSeatUnavailable)

	// The loser must not be charged.
	assert.True(t, userBalance(t, bunDB, bob.ID).Equal(decimal.NewFromInt(100)))
}

func TestBookInsufficientBalance(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(10))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	_, err := svc.Book(ctx, user.ID, trip.ID, 1)
	assert.ErrorIs(t, err, models.ErrInsufficientBalance)

	// The failed booking must not hold the seat.
	assert.Equal(t, 2, availableSeatCount(t, bunDB, trip.ID))
	assert.Equal(t, 2, tripAvailableSeats(t, bunDB, trip.ID))
	assert.True(t, userBalance(t, bunDB, user.ID).Equal(decimal.NewFromInt(10)))
}

func TestBookDepartedTrip(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(-time.Hour))

	_, err := svc.Book(ctx, user.ID, trip.ID, 1)
	assert.ErrorIs(t, err, models.ErrTripNotAvailable)
}

func TestBookUnknownTrip(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))

	_, err := svc.Book(context.Background(), user.ID, 9999, 1)
	assert.ErrorIs(t, err, models.ErrTripNotFound)
}

func TestBookSoldOutTrip(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	alice := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	bob := seedUser(t, bunDB, "bob", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(10), 1, time.Now().Add(24*time.Hour))

	_, err := svc.Book(ctx, alice.ID, trip.ID, 1)
	require.NoError(t, err)

	_, err = svc.Book(ctx, bob.ID, trip.ID, 1)
	assert.ErrorIs(t, err, models.ErrSeatUnavailable)
}

func TestCancelRefundsEightyPercent(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	ticket, err := svc.Book(ctx, user.ID, trip.ID, 1)
	require.NoError(t, err)

	refund, err := svc.Cancel(ctx, ticket.TicketID, user.ID)
	require.NoError(t, err)
	assert.True(t, refund.Equal(decimal.NewFromInt(40)), "refund was %s", refund)

	// Net cost of book-then-cancel is 20% of the price.
	assert.True(t, userBalance(t, bunDB, user.ID).Equal(decimal.NewFromInt(90)))

	// Seat and counter are released.
	assert.Equal(t, 2, availableSeatCount(t, bunDB, trip.ID))
	assert.Equal(t, 2, tripAvailableSeats(t, bunDB, trip.ID))

	cancelled := new(models.Ticket)
	err = bunDB.NewSelect().Model(cancelled).Where("ticket_id = ?", ticket.TicketID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// The PURCHASE row stays untouched; the refund is a new row.
	var txns []models.Transaction
	err = bunDB.NewSelect().Model(&txns).Where("user_id = ?", user.ID).Order("id").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TxnPurchase, txns[0].Type)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, models.TxnRefund, txns[1].Type)
	assert.True(t, txns[1].Amount.Equal(decimal.NewFromInt(40)))
}

func TestCancelTwice(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	ticket, err := svc.Book(ctx, user.ID, trip.ID, 1)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, ticket.TicketID, user.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, ticket.TicketID, user.ID)
	assert.ErrorIs(t, err, models.ErrTicketNotCancellable)

	// Exactly one refund.
	assert.True(t, userBalance(t, bunDB, user.ID).Equal(decimal.NewFromInt(90)))
}

func TestRebookCancelledSeat(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	alice := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	bob := seedUser(t, bunDB, "bob", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	first, err := svc.Book(ctx, alice.ID, trip.ID, 1)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, first.TicketID, alice.ID)
	require.NoError(t, err)

	// The cancelled ticket keeps its seat_id; it must not block a rebooking.
	second, err := svc.Book(ctx, bob.ID, trip.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TicketReserved, second.Status)
	assert.Equal(t, first.SeatID, second.SeatID)
	assert.Equal(t, bob.ID, second.UserID)

	assert.True(t, userBalance(t, bunDB, bob.ID).Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, tripAvailableSeats(t, bunDB, trip.ID))
	assert.Equal(t, 1, availableSeatCount(t, bunDB, trip.ID))
}

func TestCancelNotOwner(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	alice := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	bob := seedUser(t, bunDB, "bob", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(24*time.Hour))

	ticket, err := svc.Book(ctx, alice.ID, trip.ID, 1)
	require.NoError(t, err)

	// Another user's ticket looks like a missing one.
	_, err = svc.Cancel(ctx, ticket.TicketID, bob.ID)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestCancelAfterDeparture(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(50), 2, time.Now().Add(time.Minute))

	ticket, err := svc.Book(ctx, user.ID, trip.ID, 1)
	require.NoError(t, err)

	_, err = bunDB.NewUpdate().
		Model((*models.Trip)(nil)).
		Set("departure_time = ?", time.Now().Add(-time.Hour)).
		Where("id = ?", trip.ID).
		Exec(ctx)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, ticket.TicketID, user.ID)
	assert.ErrorIs(t, err, models.ErrTicketNotCancellable)
	assert.True(t, userBalance(t, bunDB, user.ID).Equal(decimal.NewFromInt(50)))
}

func TestSeatCounterMatchesSeatRows(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	user := seedUser(t, bunDB, "alice", decimal.NewFromInt(1000))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(10), 5, time.Now().Add(24*time.Hour))

	first, err := svc.Book(ctx, user.ID, trip.ID, 1)
	require.NoError(t, err)
	_, err = svc.Book(ctx, user.ID, trip.ID, 2)
	require.NoError(t, err)
	_, err = svc.Book(ctx, user.ID, trip.ID, 3)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, first.TicketID, user.ID)
	require.NoError(t, err)

	// The denormalized counter must agree with the seat rows after any
	// mix of bookings and cancellations.
	assert.Equal(t, availableSeatCount(t, bunDB, trip.ID), tripAvailableSeats(t, bunDB, trip.ID))
	assert.Equal(t, 3, tripAvailableSeats(t, bunDB, trip.ID))
}

func TestTicketsForUser(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := newTestService(t, bunDB)
	ctx := context.Background()

	alice := seedUser(t, bunDB, "alice", decimal.NewFromInt(100))
	bob := seedUser(t, bunDB, "bob", decimal.NewFromInt(100))
	trip := seedTrip(t, bunDB, decimal.NewFromInt(10), 3, time.Now().Add(24*time.Hour))

	_, err := svc.Book(ctx, alice.ID, trip.ID, 1)
	require.NoError(t, err)
	_, err = svc.Book(ctx, alice.ID, trip.ID, 2)
	require.NoError(t, err)
	_, err = svc.Book(ctx, bob.ID, trip.ID, 3)
	require.NoError(t, err)

	tickets, err := svc.TicketsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	for _, ticket := range tickets {
		assert.Equal(t, alice.ID, ticket.UserID)
	}
}
