package db_test

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

	"ms-booking/internal/booking/db"
	"ms-booking/internal/models"
)

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
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func seedTicket(t *testing.T, bunDB *bun.DB, status models.TicketStatus) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		TicketID:  "t-1",
		UserID:    1,
		TripID:    1,
		SeatID:    1,
		Price:     decimal.NewFromInt(50),
		Status:    status,
		CreatedAt: time.Now(),
	}
	_, err := bunDB.NewInsert().Model(ticket).Exec(context.Background())
	require.NoError(t, err)
	return ticket
}

func TestTripNotFound(t *testing.T) {
	bunDB := setupTestDB(t)
	store := db.Store{}

	_, err := store.Trip(context.Background(), bunDB, 9999)
	assert.ErrorIs(t, err, models.ErrTripNotFound)
}

func TestAdjustAvailableSeats(t *testing.T) {
	bunDB := setupTestDB(t)
	store := db.Store{}
	ctx := context.Background()

	trip := &models.Trip{
		Origin:         "A",
		Destination:    "B",
		DepartureTime:  time.Now().Add(time.Hour),
		ArrivalTime:    time.Now().Add(2 * time.Hour),
		Price:          decimal.NewFromInt(10),
		TotalSeats:     5,
		AvailableSeats: 5,
		Status:         models.TripScheduled,
		CreatedAt:      time.Now(),
	}
	_, err := bunDB.NewInsert().Model(trip).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AdjustAvailableSeats(ctx, bunDB, trip.ID, -1))
	require.NoError(t, store.AdjustAvailableSeats(ctx, bunDB, trip.ID, -1))
	require.NoError(t, store.AdjustAvailableSeats(ctx, bunDB, trip.ID, 1))

	updated, err := store.Trip(ctx, bunDB, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.AvailableSeats)
}

func TestTicketForUpdateScopedToOwner(t *testing.T) {
	bunDB := setupTestDB(t)
	store := db.Store{}
	ctx := context.Background()

	ticket := seedTicket(t, bunDB, models.TicketReserved)

	found, err := store.TicketForUpdate(ctx, bunDB, ticket.TicketID, ticket.UserID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketID, found.TicketID)

	// The wrong owner sees ErrTicketNotFound, not a permission error.
	_, err = store.TicketForUpdate(ctx, bunDB, ticket.TicketID, 999)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestMarkTicketCancelledGuardedOnStatus(t *testing.T) {
	bunDB := setupTestDB(t)
	store := db.Store{}
	ctx := context.Background()

	ticket := seedTicket(t, bunDB, models.TicketReserved)

	affected, err := store.MarkTicketCancelled(ctx, bunDB, ticket.TicketID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Second attempt loses the guard: zero rows.
	affected, err = store.MarkTicketCancelled(ctx, bunDB, ticket.TicketID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestMarkTicketCancelledSkipsUsed(t *testing.T) {
	bunDB := setupTestDB(t)
	store := db.Store{}
	ctx := context.Background()

	ticket := seedTicket(t, bunDB, models.TicketUsed)

	affected, err := store.MarkTicketCancelled(ctx, bunDB, ticket.TicketID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUpdateTicketStatus(t *testing.T) {
	bunDB := setupTestDB(t)
	store := db.Store{}
	ctx := context.Background()

	ticket := seedTicket(t, bunDB, models.TicketReserved)

	require.NoError(t, store.UpdateTicketStatus(ctx, bunDB, ticket.TicketID, models.TicketPaid))

	updated, err := store.Ticket(ctx, bunDB, ticket.TicketID, ticket.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketPaid, updated.Status)
}
