// Package reports computes the admin-facing aggregates. Revenue sums
// ticket prices over PAID and RESERVED tickets; the retained share of
// cancelled tickets is included implicitly through the untouched PURCHASE
// transactions and never appears as its own row.
package reports

import (
	"context"
	"time"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Service struct {
	DB *bun.DB
}

func NewService(bunDB *bun.DB) *Service {
	return &Service{DB: bunDB}
}

var revenueStatuses = []models.TicketStatus{models.TicketPaid, models.TicketReserved}

// TripRevenue sums the price charged across a trip's live tickets.
func (s *Service) TripRevenue(ctx context.Context, tripID int64) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := s.DB.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("COALESCE(SUM(price), 0)").
		Where("trip_id = ?", tripID).
		Where("status IN (?)", bun.In(revenueStatuses)).
		Scan(ctx, &revenue)
	if err != nil {
		return decimal.Zero, err
	}
	return revenue, nil
}

// TotalRevenue sums the price charged across all live tickets.
func (s *Service) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := s.DB.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("COALESCE(SUM(price), 0)").
		Where("status IN (?)", bun.In(revenueStatuses)).
		Scan(ctx, &revenue)
	if err != nil {
		return decimal.Zero, err
	}
	return revenue, nil
}

type TripStats struct {
	TotalTrips    int `bun:"total_trips" json:"total_trips"`
	DepartedTrips int `bun:"departed_trips" json:"departed_trips"`
	UpcomingTrips int `bun:"upcoming_trips" json:"upcoming_trips"`
}

func (s *Service) GetTripStats(ctx context.Context) (*TripStats, error) {
	now := time.Now()
	stats := new(TripStats)
	err := s.DB.NewSelect().
		Model((*models.Trip)(nil)).
		ColumnExpr("COUNT(*) AS total_trips").
		ColumnExpr("COUNT(CASE WHEN departure_time < ? THEN 1 END) AS departed_trips", now).
		ColumnExpr("COUNT(CASE WHEN departure_time >= ? THEN 1 END) AS upcoming_trips", now).
		Scan(ctx, stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type TicketStats struct {
	TotalTickets     int `bun:"total_tickets" json:"total_tickets"`
	PaidTickets      int `bun:"paid_tickets" json:"paid_tickets"`
	ReservedTickets  int `bun:"reserved_tickets" json:"reserved_tickets"`
	CancelledTickets int `bun:"cancelled_tickets" json:"cancelled_tickets"`
	UsedTickets      int `bun:"used_tickets" json:"used_tickets"`
}

func (s *Service) GetTicketStats(ctx context.Context) (*TicketStats, error) {
	stats := new(TicketStats)
	err := s.DB.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("COUNT(*) AS total_tickets").
		ColumnExpr("COUNT(CASE WHEN status = ? THEN 1 END) AS paid_tickets", models.TicketPaid).
		ColumnExpr("COUNT(CASE WHEN status = ? THEN 1 END) AS reserved_tickets", models.TicketReserved).
		ColumnExpr("COUNT(CASE WHEN status = ? THEN 1 END) AS cancelled_tickets", models.TicketCancelled).
		ColumnExpr("COUNT(CASE WHEN status = ? THEN 1 END) AS used_tickets", models.TicketUsed).
		Scan(ctx, stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ListUsers returns every user without password hashes, for the admin
// overview.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.NewSelect().
		Model(&users).
		Column("id", "username", "wallet_balance", "role", "created_at").
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}
