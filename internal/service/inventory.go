package service

import (
	"context"
	"fmt"
	"log"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
)

// Inventory materializes the bookable seat set for a trip from its
// vehicle layout and persists it in bulk.  Seat status transitions
// themselves live in the repository as conditional updates; this service
// owns generation only.
type Inventory struct {
	seats *repository.SeatRepo
}

// NewInventory returns an Inventory over the given seat repository.
func NewInventory(seats *repository.SeatRepo) *Inventory {
	return &Inventory{seats: seats}
}

// MaterializeTrip generates the seats for a freshly created trip and
// inserts them.  All seats start AVAILABLE.
func (s *Inventory) MaterializeTrip(ctx context.Context, tripID uint64, layout model.VehicleLayout) ([]model.Seat, error) {
	seats, err := GenerateSeats(tripID, layout)
	if err != nil {
		return nil, err
	}
	if err := s.seats.CreateBulk(ctx, seats); err != nil {
		return nil, err
	}
	return seats, nil
}

// GenerateSeats produces one Seat per bookable position described by the
// layout.  With an explicit matrix every truthy cell becomes a seat; the
// advisory rows-per-floor hint is only checked, never enforced, because
// operators routinely describe sleeper layouts with ragged rows.  Without
// a matrix an even grid is derived from the totals: seats split evenly
// across floors with the remainder on the last floor, rows per floor are
// ceil(seatsOnFloor / totalColumns), and the final row may be partial.
// Labels are {row letter}{column number}, prefixed with "F{floor}-" on
// multi-floor vehicles.
func GenerateSeats(tripID uint64, layout model.VehicleLayout) ([]model.Seat, error) {
	if len(layout.SeatMatrix) > 0 {
		return seatsFromMatrix(tripID, layout)
	}
	return seatsFromGrid(tripID, layout)
}

func seatsFromMatrix(tripID uint64, layout model.VehicleLayout) ([]model.Seat, error) {
	floors := len(layout.SeatMatrix)
	var seats []model.Seat
	for f, floor := range layout.SeatMatrix {
		if len(layout.RowsPerFloor) > f && layout.RowsPerFloor[f] != len(floor) {
			log.Printf("inventory: trip %d floor %d declares %d rows but matrix has %d; using matrix",
				tripID, f+1, layout.RowsPerFloor[f], len(floor))
		}
		for r, row := range floor {
			for c, present := range row {
				if !present {
					continue
				}
				seats = append(seats, model.Seat{
					TripID:       tripID,
					Label:        seatLabel(floors, f+1, r, c+1),
					RowLabel:     rowLetters(r),
					ColumnNumber: uint32(c + 1),
					Floor:        uint32(f + 1),
					Status:       model.SeatAvailable,
				})
			}
		}
	}
	return seats, nil
}

func seatsFromGrid(tripID uint64, layout model.VehicleLayout) ([]model.Seat, error) {
	if layout.TotalSeats <= 0 {
		return nil, ErrInvalidLayout
	}
	floors := layout.TotalFloors
	if floors <= 0 {
		floors = 1
	}
	cols := layout.TotalColumns
	if cols <= 0 {
		cols = 1
	}
	perFloor := layout.TotalSeats / floors
	remainder := layout.TotalSeats % floors

	var seats []model.Seat
	for f := 1; f <= floors; f++ {
		onFloor := perFloor
		if f == floors {
			onFloor += remainder
		}
		for i := 0; i < onFloor; i++ {
			row := i / cols
			col := i%cols + 1
			seats = append(seats, model.Seat{
				TripID:       tripID,
				Label:        seatLabel(floors, f, row, col),
				RowLabel:     rowLetters(row),
				ColumnNumber: uint32(col),
				Floor:        uint32(f),
				Status:       model.SeatAvailable,
			})
		}
	}
	return seats, nil
}

func seatLabel(totalFloors, floor, row, col int) string {
	label := fmt.Sprintf("%s%d", rowLetters(row), col)
	if totalFloors > 1 {
		return fmt.Sprintf("F%d-%s", floor, label)
	}
	return label
}

// rowLetters converts a zero-based row index to its letter label:
// 0 → A, 25 → Z, 26 → AA.
func rowLetters(row int) string {
	label := ""
	for {
		label = string(rune('A'+row%26)) + label
		row = row/26 - 1
		if row < 0 {
			return label
		}
	}
}
