package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/busline/booking-engine/internal/gateway"
	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/queue"
	"github.com/busline/booking-engine/internal/repository"
)

// Refund reverses tickets and their payments and restores seat
// inventory.  The gateway is asked to return the money first; only a
// successful provider refund is followed by state changes, so a gateway
// failure leaves everything untouched for the caller to retry.
type Refund struct {
	db       *sql.DB
	seats    *repository.SeatRepo
	orders   *repository.OrderRepo
	tickets  *repository.TicketRepo
	payments *repository.PaymentRepo
	gateways *gateway.Registry
	cache    *SeatCache

	// feePercent is withheld from every refund (0 = full refunds).
	feePercent int64
	now        func() time.Time
	publish    func(context.Context, queue.OrderSettledEvent) error
}

// NewRefund wires the refund service.
func NewRefund(db *sql.DB, seats *repository.SeatRepo, orders *repository.OrderRepo, tickets *repository.TicketRepo, payments *repository.PaymentRepo, gateways *gateway.Registry, cache *SeatCache, feePercent int64, publish func(context.Context, queue.OrderSettledEvent) error) *Refund {
	return &Refund{
		db:         db,
		seats:      seats,
		orders:     orders,
		tickets:    tickets,
		payments:   payments,
		gateways:   gateways,
		cache:      cache,
		feePercent: feePercent,
		now:        time.Now,
		publish:    publish,
	}
}

// RefundTickets refunds a subset of an order's tickets.  Every named
// ticket must belong to the order and be CONFIRMED; otherwise the whole
// request is rejected with RefundIneligibleError and nothing changes.
// On success the tickets go REFUNDED, their seats return to AVAILABLE,
// the order total is reduced, and the order itself becomes REFUNDED once
// no active ticket remains.
func (r *Refund) RefundTickets(ctx context.Context, orderID uint64, ticketIDs []uint64, reason string) (*model.Order, error) {
	if len(ticketIDs) == 0 {
		return nil, &ValidationError{Msg: "ticket_ids is required"}
	}
	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPaid {
		return nil, &RefundIneligibleError{TicketIDs: ticketIDs, Msg: fmt.Sprintf("order is %s", order.Status)}
	}
	payment, err := r.payments.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	all, err := r.tickets.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Ticket, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	var (
		refundCents int64
		seatIDs     []uint64
		ineligible  []uint64
	)
	for _, id := range ticketIDs {
		t, ok := byID[id]
		if !ok {
			return nil, repository.ErrOrderNotFound
		}
		if t.Status != model.TicketConfirmed {
			ineligible = append(ineligible, id)
			continue
		}
		refundCents += t.PriceCents
		seatIDs = append(seatIDs, t.SeatID)
	}
	if len(ineligible) > 0 {
		return nil, &RefundIneligibleError{TicketIDs: ineligible, Msg: "not in CONFIRMED status"}
	}
	refundCents -= refundCents * r.feePercent / 100

	adapter, err := r.gateways.Get(payment.MethodCode)
	if err != nil {
		return nil, err
	}
	gatewayTxn := ""
	if payment.GatewayTxnNo != nil {
		gatewayTxn = *payment.GatewayTxnNo
	}
	// Money first.  If the provider refuses or times out, no local state
	// changes: the caller retries against an unchanged order.
	if err := adapter.Refund(ctx, gateway.RefundRequest{
		MerchantRef:  payment.MerchantRef,
		GatewayTxnNo: gatewayTxn,
		AmountCents:  refundCents,
		Reason:       reason,
	}); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	moved, err := r.tickets.BulkUpdateStatusTx(ctx, tx, ticketIDs, model.TicketConfirmed, model.TicketRefunded)
	if err != nil {
		return nil, err
	}
	if moved != int64(len(ticketIDs)) {
		return nil, &RefundIneligibleError{TicketIDs: ticketIDs, Msg: "ticket state changed concurrently"}
	}
	if err := r.seats.ReleaseTx(ctx, tx, seatIDs); err != nil {
		return nil, err
	}
	if err := r.orders.ReduceTotalsTx(ctx, tx, orderID, refundCents); err != nil {
		return nil, err
	}
	active, err := r.tickets.CountActiveTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if active == 0 {
		if _, err := r.orders.UpdateStatusTx(ctx, tx, orderID, model.OrderPaid, model.OrderRefunded); err != nil {
			return nil, err
		}
	}
	updated, err := r.orders.GetByIDTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	r.cache.Invalidate(ctx, order.TripID)
	if r.publish != nil {
		tickets, _ := r.tickets.GetByOrder(ctx, orderID)
		labels := make([]string, 0, len(tickets))
		for _, t := range tickets {
			if t.Status == model.TicketRefunded {
				labels = append(labels, t.SeatLabel)
			}
		}
		_ = r.publish(ctx, queue.OrderSettledEvent{
			OrderID:         updated.ID,
			Status:          string(updated.Status),
			MethodCode:      payment.MethodCode,
			MerchantRef:     payment.MerchantRef,
			SeatLabels:      labels,
			TotalFinalCents: updated.TotalFinalCents,
			SettledAt:       r.now().UTC().Format(time.RFC3339),
		})
	}
	return updated, nil
}
