package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in-progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

type Trip struct {
	bun.BaseModel `bun:"table:trips"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	Origin         string          `bun:"origin,notnull" json:"origin"`
	Destination    string          `bun:"destination,notnull" json:"destination"`
	DepartureTime  time.Time       `bun:"departure_time,notnull" json:"departure_time"`
	ArrivalTime    time.Time       `bun:"arrival_time,notnull" json:"arrival_time"`
	Price          decimal.Decimal `bun:"price,notnull" json:"price"`
	TotalSeats     int             `bun:"total_seats,notnull" json:"total_seats"`
	AvailableSeats int             `bun:"available_seats,notnull" json:"available_seats"`
	Status         TripStatus      `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time       `bun:"created_at,notnull" json:"created_at"`
}

// HasStarted reports whether the departure time has passed. Bookings and
// cancellations are only allowed before departure.
func (t *Trip) HasStarted() bool {
	return !time.Now().Before(t.DepartureTime)
}
