package model

import (
	"time"
)

// Trip is the minimal slice of master data the booking engine needs: a
// scheduled departure with a fixed advertised price.  Route and vehicle
// management live in an external service; the price is computed once at
// creation time as route price + vehicle type price and never changes
// afterwards, so already-sold tickets keep their amounts.
type Trip struct {
	ID          uint64    // trips.id
	RouteName   string    // trips.route_name (denormalized display label)
	PriceCents  int64     // trips.price_cents (route + vehicle type, fixed)
	DepartureAt time.Time // trips.departure_at
	CreatedAt   time.Time // trips.created_at
	UpdatedAt   time.Time // trips.updated_at
}

// VehicleLayout describes how seats are arranged on the vehicle serving a
// trip.  When SeatMatrix is present it is authoritative: one boolean per
// cell, indexed [floor][row][column], true where a seat exists.  Without a
// matrix an even grid is derived from TotalSeats/TotalFloors/TotalColumns.
// RowsPerFloor is advisory; a mismatch against the matrix is tolerated.
type VehicleLayout struct {
	TotalSeats   int        `json:"total_seats"`
	TotalFloors  int        `json:"total_floors"`
	TotalColumns int        `json:"total_columns"`
	RowsPerFloor []int      `json:"rows_per_floor,omitempty"`
	SeatMatrix   [][][]bool `json:"seat_matrix,omitempty"`
}
