package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/model"
)

func TestSplitTickets_EvenSplit(t *testing.T) {
	seats := []model.Seat{
		{ID: 1, Label: "A1"},
		{ID: 2, Label: "A2"},
		{ID: 3, Label: "B1"},
	}
	tickets := splitTickets(42, seats, 450000)
	require.Len(t, tickets, 3)

	var total int64
	for i, tk := range tickets {
		assert.Equal(t, uint64(42), tk.OrderID)
		assert.Equal(t, seats[i].ID, tk.SeatID)
		assert.Equal(t, seats[i].Label, tk.SeatLabel)
		assert.Equal(t, model.TicketReserved, tk.Status)
		total += tk.PriceCents
	}
	assert.Equal(t, int64(450000), total)
	assert.Equal(t, int64(150000), tickets[0].PriceCents)
}

func TestSplitTickets_RemainderLandsOnFirstTicket(t *testing.T) {
	seats := []model.Seat{{ID: 1, Label: "A1"}, {ID: 2, Label: "A2"}, {ID: 3, Label: "B1"}}
	tickets := splitTickets(42, seats, 100)
	require.Len(t, tickets, 3)

	// 100 over 3 tickets: 34 + 33 + 33, never losing a cent.
	assert.Equal(t, int64(34), tickets[0].PriceCents)
	assert.Equal(t, int64(33), tickets[1].PriceCents)
	assert.Equal(t, int64(33), tickets[2].PriceCents)
}

func TestSettled_TerminalStatuses(t *testing.T) {
	assert.False(t, settled(model.PaymentPending))
	assert.False(t, settled(model.PaymentProcessing))
	assert.True(t, settled(model.PaymentCompleted))
	assert.True(t, settled(model.PaymentFailed))
	assert.True(t, settled(model.PaymentCancelled))
	assert.True(t, settled(model.PaymentExpired))
}
