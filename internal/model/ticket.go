package model

import "time"

// TicketStatus enumerates ticket states.  A ticket's status tracks its
// seat's status and the two are always updated together inside one
// transaction: RESERVED ⇔ seat RESERVED, CONFIRMED ⇔ seat BOOKED.
type TicketStatus string

const (
	TicketReserved  TicketStatus = "RESERVED"
	TicketConfirmed TicketStatus = "CONFIRMED"
	TicketCheckedIn TicketStatus = "CHECKED_IN"
	TicketCancelled TicketStatus = "CANCELLED"
	TicketRefunded  TicketStatus = "REFUNDED"
)

// Ticket grants one seat on one trip to the purchaser of an order.  There
// is exactly one ticket per seat per order.  PriceCents records the seat's
// share of the order total at purchase time so refunds are computed
// against what was actually paid.
type Ticket struct {
	ID         uint64       // tickets.id
	OrderID    uint64       // tickets.order_id
	SeatID     uint64       // tickets.seat_id
	SeatLabel  string       // tickets.seat_label (denormalized for receipts)
	PriceCents int64        // tickets.price_cents
	Status     TicketStatus // tickets.status
	CreatedAt  time.Time    // tickets.created_at
	UpdatedAt  time.Time    // tickets.updated_at
}
