package models

import "github.com/uptrace/bun"

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatReserved  SeatStatus = "reserved"
)

// Seat is one unit of a trip's inventory. Seats are created in bulk
// (numbered 1..total_seats) when the trip is created and only ever flip
// between available and reserved.
type Seat struct {
	bun.BaseModel `bun:"table:seats"`

	ID         int64      `bun:"id,pk,autoincrement" json:"id"`
	TripID     int64      `bun:"trip_id,notnull" json:"trip_id"`
	SeatNumber int        `bun:"seat_number,notnull" json:"seat_number"`
	Status     SeatStatus `bun:"status,notnull" json:"status"`
}
