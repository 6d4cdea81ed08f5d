package reports_test

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

	"ms-booking/internal/models"
	"ms-booking/internal/reports"
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
		(*models.Ticket)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func seedTrip(t *testing.T, bunDB *bun.DB, departure time.Time) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		Origin:         "Springfield",
		Destination:    "Shelbyville",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(2 * time.Hour),
		Price:          decimal.NewFromInt(50),
		TotalSeats:     40,
		AvailableSeats: 40,
		Status:         models.TripScheduled,
		CreatedAt:      time.Now(),
	}
	_, err := bunDB.NewInsert().Model(trip).Exec(context.Background())
	require.NoError(t, err)
	return trip
}

func seedTicket(t *testing.T, bunDB *bun.DB, id string, tripID, seatID int64, price int64, status models.TicketStatus) {
	t.Helper()
	ticket := &models.Ticket{
		TicketID:  id,
		UserID:    1,
		TripID:    tripID,
		SeatID:    seatID,
		Price:     decimal.NewFromInt(price),
		Status:    status,
		CreatedAt: time.Now(),
	}
	_, err := bunDB.NewInsert().Model(ticket).Exec(context.Background())
	require.NoError(t, err)
}

func TestTripRevenue(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := reports.NewService(bunDB)
	ctx := context.Background()

	trip := seedTrip(t, bunDB, time.Now().Add(24*time.Hour))
	other := seedTrip(t, bunDB, time.Now().Add(48*time.Hour))

	seedTicket(t, bunDB, "t-1", trip.ID, 1, 50, models.TicketReserved)
	seedTicket(t, bunDB, "t-2", trip.ID, 2, 50, models.TicketPaid)
	// Cancelled tickets contribute nothing.
	seedTicket(t, bunDB, "t-3", trip.ID, 3, 50, models.TicketCancelled)
	seedTicket(t, bunDB, "t-4", other.ID, 41, 80, models.TicketPaid)

	revenue, err := svc.TripRevenue(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(100)), "revenue was %s", revenue)

	total, err := svc.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(180)), "total was %s", total)
}

func TestTripRevenueEmpty(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := reports.NewService(bunDB)

	revenue, err := svc.TripRevenue(context.Background(), 9999)
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())
}

func TestGetTripStats(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := reports.NewService(bunDB)

	seedTrip(t, bunDB, time.Now().Add(24*time.Hour))
	seedTrip(t, bunDB, time.Now().Add(48*time.Hour))
	seedTrip(t, bunDB, time.Now().Add(-time.Hour))

	stats, err := svc.GetTripStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTrips)
	assert.Equal(t, 1, stats.DepartedTrips)
	assert.Equal(t, 2, stats.UpcomingTrips)
}

func TestGetTicketStats(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := reports.NewService(bunDB)

	trip := seedTrip(t, bunDB, time.Now().Add(24*time.Hour))
	seedTicket(t, bunDB, "t-1", trip.ID, 1, 50, models.TicketReserved)
	seedTicket(t, bunDB, "t-2", trip.ID, 2, 50, models.TicketPaid)
	seedTicket(t, bunDB, "t-3", trip.ID, 3, 50, models.TicketPaid)
	seedTicket(t, bunDB, "t-4", trip.ID, 4, 50, models.TicketCancelled)
	seedTicket(t, bunDB, "t-5", trip.ID, 5, 50, models.TicketUsed)

	stats, err := svc.GetTicketStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalTickets)
	assert.Equal(t, 1, stats.ReservedTickets)
	assert.Equal(t, 2, stats.PaidTickets)
	assert.Equal(t, 1, stats.CancelledTickets)
	assert.Equal(t, 1, stats.UsedTickets)
}

func TestListUsersOmitsPasswordHash(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := reports.NewService(bunDB)
	ctx := context.Background()

	user := &models.User{
		Username:      "alice",
		PasswordHash:  "secret-hash",
		WalletBalance: decimal.NewFromInt(10),
		Role:          models.RoleUser,
		CreatedAt:     time.Now(),
	}
	_, err := bunDB.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Empty(t, users[0].PasswordHash)
}
