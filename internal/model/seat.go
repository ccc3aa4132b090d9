package model

import "time"

// SeatStatus enumerates the states a bookable seat moves through.
// AVAILABLE seats may be reserved; RESERVED seats are held for a pending
// order until reserved_until; BOOKED seats belong to a paid order.
// MAINTENANCE and DISABLED seats are never sold.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "AVAILABLE"
	SeatReserved    SeatStatus = "RESERVED"
	SeatBooked      SeatStatus = "BOOKED"
	SeatMaintenance SeatStatus = "MAINTENANCE"
	SeatDisabled    SeatStatus = "DISABLED"
)

// Seat describes one bookable seat on a trip.  Seats are materialized in
// bulk when a trip is created from the vehicle type's layout and are
// uniquely identified within a trip by their label.
//
// Fields:
//  ID            – primary key identifier.
//  TripID        – trip this seat belongs to (0 once the trip is deleted).
//  Label         – display label, e.g. "A1" or "F2-B3" on double deckers.
//  RowLabel      – letter designating the row.
//  ColumnNumber  – number of the seat within the row (1-based).
//  Floor         – floor of the vehicle (1-based; 1 for single deckers).
//  Status        – current lifecycle state.
//  ReservedBy    – order currently holding or owning the seat (nullable).
//  ReservedUntil – hold expiry; only meaningful while RESERVED.
type Seat struct {
	ID            uint64     // seats.id
	TripID        uint64     // seats.trip_id
	Label         string     // seats.label
	RowLabel      string     // seats.row_label
	ColumnNumber  uint32     // seats.column_number
	Floor         uint32     // seats.floor
	Status        SeatStatus // seats.status
	ReservedBy    *uint64    // seats.reserved_by (nullable order id)
	ReservedUntil *time.Time // seats.reserved_until (nullable)
	CreatedAt     time.Time  // seats.created_at
	UpdatedAt     time.Time  // seats.updated_at
}
