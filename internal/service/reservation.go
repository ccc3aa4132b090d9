package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
)

// Reservation coordinates the all-or-nothing hold of a seat set for a new
// order.  Every seat is moved AVAILABLE → RESERVED with a conditional
// update inside the caller's transaction; if any seat was taken in the
// meantime the caller rolls the transaction back, so a booking request
// never observes a partial hold.
type Reservation struct {
	seats *repository.SeatRepo
}

// NewReservation returns a Reservation coordinator.
func NewReservation(seats *repository.SeatRepo) *Reservation {
	return &Reservation{seats: seats}
}

// ReserveTx attempts to hold every listed seat for orderID until `until`.
// The seat set must be non-empty, free of duplicates and belong to a
// single trip; violations fail with ValidationError before any update.
// Seats that lose the compare-and-swap (already held, booked, disabled or
// under maintenance) are collected and reported together in one
// SeatUnavailableError so the client can reselect in a single round trip.
// On any error the caller must roll back the transaction.
func (r *Reservation) ReserveTx(ctx context.Context, tx *sql.Tx, orderID uint64, seatIDs []uint64, until time.Time) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, &ValidationError{Msg: "seat_ids is required"}
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			return nil, &ValidationError{Msg: fmt.Sprintf("duplicate seat id %d", id)}
		}
		seen[id] = struct{}{}
	}

	seats, err := r.seats.GetByIDsTx(ctx, tx, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		found := make(map[uint64]struct{}, len(seats))
		for _, s := range seats {
			found[s.ID] = struct{}{}
		}
		var missing []uint64
		for _, id := range seatIDs {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown seat ids %v", missing)}
	}
	tripID := seats[0].TripID
	for _, s := range seats {
		if s.TripID != tripID {
			return nil, &ValidationError{Msg: "seats span multiple trips"}
		}
	}

	// CAS each seat; keep going after a conflict so the error names every
	// contested seat, not just the first.
	var conflicts []uint64
	for _, s := range seats {
		err := r.seats.TransitionTx(ctx, tx, s.ID, model.SeatAvailable, model.SeatReserved, &orderID, &until)
		if errors.Is(err, repository.ErrSeatConflict) {
			conflicts = append(conflicts, s.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	if len(conflicts) > 0 {
		return nil, &SeatUnavailableError{SeatIDs: conflicts}
	}
	return seats, nil
}
