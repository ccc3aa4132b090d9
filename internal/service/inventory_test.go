package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/service"
)

func seatLabels(seats []model.Seat) []string {
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label)
	}
	return labels
}

func TestGenerateSeats_GridSingleFloor(t *testing.T) {
	seats, err := service.GenerateSeats(7, model.VehicleLayout{
		TotalSeats:   4,
		TotalFloors:  1,
		TotalColumns: 2,
	})
	require.NoError(t, err)
	require.Len(t, seats, 4)

	assert.Equal(t, []string{"A1", "A2", "B1", "B2"}, seatLabels(seats))
	for _, s := range seats {
		assert.Equal(t, uint64(7), s.TripID)
		assert.Equal(t, uint32(1), s.Floor)
		assert.Equal(t, model.SeatAvailable, s.Status)
	}
	assert.Equal(t, "A", seats[0].RowLabel)
	assert.Equal(t, uint32(2), seats[1].ColumnNumber)
	assert.Equal(t, "B", seats[2].RowLabel)
}

func TestGenerateSeats_GridTwoFloorsRemainderOnLast(t *testing.T) {
	seats, err := service.GenerateSeats(1, model.VehicleLayout{
		TotalSeats:   5,
		TotalFloors:  2,
		TotalColumns: 2,
	})
	require.NoError(t, err)
	require.Len(t, seats, 5)

	// 5 seats over 2 floors: 2 on floor 1, the remainder lands on floor 2.
	assert.Equal(t, []string{"F1-A1", "F1-A2", "F2-A1", "F2-A2", "F2-B1"}, seatLabels(seats))
	assert.Equal(t, uint32(1), seats[0].Floor)
	assert.Equal(t, uint32(2), seats[4].Floor)
}

func TestGenerateSeats_GridDefaultsFloorsAndColumns(t *testing.T) {
	seats, err := service.GenerateSeats(1, model.VehicleLayout{TotalSeats: 3})
	require.NoError(t, err)
	require.Len(t, seats, 3)

	// One implicit column: every seat is its own row.
	assert.Equal(t, []string{"A1", "B1", "C1"}, seatLabels(seats))
}

func TestGenerateSeats_GridRowLettersWrapPastZ(t *testing.T) {
	seats, err := service.GenerateSeats(1, model.VehicleLayout{
		TotalSeats:   27,
		TotalFloors:  1,
		TotalColumns: 1,
	})
	require.NoError(t, err)
	require.Len(t, seats, 27)

	assert.Equal(t, "Z1", seats[25].Label)
	assert.Equal(t, "AA1", seats[26].Label)
}

func TestGenerateSeats_MatrixSkipsMissingPositions(t *testing.T) {
	layout := model.VehicleLayout{
		SeatMatrix: [][][]bool{
			{
				{true, false, true},
				{true, true, true},
			},
		},
	}
	seats, err := service.GenerateSeats(3, layout)
	require.NoError(t, err)
	require.Len(t, seats, 5)

	// The aisle cell (A2) never becomes a seat.
	assert.Equal(t, []string{"A1", "A3", "B1", "B2", "B3"}, seatLabels(seats))
	assert.Equal(t, uint32(3), seats[1].ColumnNumber)
}

func TestGenerateSeats_MatrixMultiFloorPrefixesLabels(t *testing.T) {
	layout := model.VehicleLayout{
		SeatMatrix: [][][]bool{
			{{true, true}},
			{{true}},
		},
	}
	seats, err := service.GenerateSeats(1, layout)
	require.NoError(t, err)
	require.Len(t, seats, 3)

	assert.Equal(t, []string{"F1-A1", "F1-A2", "F2-A1"}, seatLabels(seats))
	assert.Equal(t, uint32(2), seats[2].Floor)
}

func TestGenerateSeats_MatrixWinsOverRowsHint(t *testing.T) {
	// The advisory rows-per-floor hint disagrees with the matrix; the
	// matrix is authoritative and generation still succeeds.
	layout := model.VehicleLayout{
		RowsPerFloor: []int{5},
		SeatMatrix: [][][]bool{
			{
				{true, true},
				{true, true},
			},
		},
	}
	seats, err := service.GenerateSeats(1, layout)
	require.NoError(t, err)
	assert.Len(t, seats, 4)
}

func TestGenerateSeats_EmptyLayoutIsInvalid(t *testing.T) {
	_, err := service.GenerateSeats(1, model.VehicleLayout{})
	assert.ErrorIs(t, err, service.ErrInvalidLayout)

	_, err = service.GenerateSeats(1, model.VehicleLayout{TotalSeats: -2})
	assert.ErrorIs(t, err, service.ErrInvalidLayout)
}
