// Package trips owns the trip lifecycle: creating a trip and its seat
// inventory, deleting it, and the read side the booking workflow consumes.
package trips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Recorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Service struct {
	DB     *bun.DB
	Audit  Recorder
	Logger *logger.Logger
}

func NewService(bunDB *bun.DB, audit Recorder, log *logger.Logger) *Service {
	return &Service{DB: bunDB, Audit: audit, Logger: log}
}

type CreateParams struct {
	Origin        string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         decimal.Decimal
	TotalSeats    int
}

// Create inserts the trip and its full seat inventory (seat numbers
// 1..TotalSeats, all available) in one unit.
func (s *Service) Create(ctx context.Context, actor string, params CreateParams) (*models.Trip, error) {
	if params.Origin == "" || params.Destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", models.ErrValidation)
	}
	if !params.DepartureTime.Before(params.ArrivalTime) {
		return nil, fmt.Errorf("%w: departure must be before arrival", models.ErrValidation)
	}
	if !params.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", models.ErrValidation)
	}
	if params.TotalSeats <= 0 {
		return nil, fmt.Errorf("%w: total seats must be positive", models.ErrValidation)
	}

	trip := &models.Trip{
		Origin:         params.Origin,
		Destination:    params.Destination,
		DepartureTime:  params.DepartureTime,
		ArrivalTime:    params.ArrivalTime,
		Price:          params.Price,
		TotalSeats:     params.TotalSeats,
		AvailableSeats: params.TotalSeats,
		Status:         models.TripScheduled,
		CreatedAt:      time.Now(),
	}

	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(trip).Exec(ctx); err != nil {
			return err
		}

		seats := make([]models.Seat, 0, params.TotalSeats)
		for n := 1; n <= params.TotalSeats; n++ {
			seats = append(seats, models.Seat{
				TripID:     trip.ID,
				SeatNumber: n,
				Status:     models.SeatAvailable,
			})
		}
		_, err := tx.NewInsert().Model(&seats).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, actor, "CREATE_TRIP", fmt.Sprintf("Trip %s to %s created", trip.Origin, trip.Destination))
	s.Logger.Info("TRIPS", fmt.Sprintf("trip %d created: %s to %s, %d seats", trip.ID, trip.Origin, trip.Destination, trip.TotalSeats))
	return trip, nil
}

// Delete removes a trip and its seat inventory. A trip with live tickets
// cannot be deleted; cancel or complete it first.
func (s *Service) Delete(ctx context.Context, actor string, tripID int64) error {
	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Trip)(nil)).
			Where("id = ?", tripID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrTripNotFound
		}

		live, err := tx.NewSelect().
			Model((*models.Ticket)(nil)).
			Where("trip_id = ?", tripID).
			Where("status IN (?)", bun.In([]models.TicketStatus{models.TicketReserved, models.TicketPaid})).
			Exists(ctx)
		if err != nil {
			return err
		}
		if live {
			return fmt.Errorf("%w: trip has active tickets", models.ErrValidation)
		}

		if _, err := tx.NewDelete().Model((*models.Ticket)(nil)).Where("trip_id = ?", tripID).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.Seat)(nil)).Where("trip_id = ?", tripID).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*models.Trip)(nil)).Where("id = ?", tripID).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	s.Audit.Record(ctx, actor, "DELETE_TRIP", fmt.Sprintf("Trip %d deleted", tripID))
	s.Logger.Info("TRIPS", fmt.Sprintf("trip %d deleted", tripID))
	return nil
}

func (s *Service) Get(ctx context.Context, tripID int64) (*models.Trip, error) {
	var trip models.Trip
	err := s.DB.NewSelect().
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

// ListAvailable returns scheduled trips that have not departed yet,
// soonest departure first.
func (s *Service) ListAvailable(ctx context.Context) ([]models.Trip, error) {
	var list []models.Trip
	err := s.DB.NewSelect().
		Model(&list).
		Where("status = ?", models.TripScheduled).
		Where("departure_time > ?", time.Now()).
		Order("departure_time").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}
