package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TicketStatus string

const (
	TicketReserved  TicketStatus = "RESERVED"
	TicketPaid      TicketStatus = "PAID"
	TicketCancelled TicketStatus = "CANCELLED"
	TicketUsed      TicketStatus = "USED"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID string `bun:"ticket_id,pk" json:"ticket_id"`
	UserID   int64  `bun:"user_id,notnull" json:"user_id"`
	TripID   int64  `bun:"trip_id,notnull" json:"trip_id"`
	// At most one RESERVED/PAID ticket may hold a seat at a time; the
	// schema enforces this with a partial unique index over live
	// statuses, so cancelled tickets keep their seat_id without blocking
	// a rebooking.
	SeatID      int64           `bun:"seat_id,notnull" json:"seat_id"`
	Price       decimal.Decimal `bun:"price,notnull" json:"price"`
	Status      TicketStatus    `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time       `bun:"created_at,notnull" json:"created_at"`
	CancelledAt *time.Time      `bun:"cancelled_at" json:"cancelled_at,omitempty"`
}

// CanCancel reports whether the ticket status still allows cancellation.
// CANCELLED and USED are terminal.
func (t *Ticket) CanCancel() bool {
	return t.Status == TicketReserved || t.Status == TicketPaid
}
