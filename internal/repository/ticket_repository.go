package repository

import (
	"context"
	"database/sql"

	"github.com/busline/booking-engine/internal/model"
)

// TicketRepo provides data access to the tickets table.  Tickets always
// change status together with their seat inside one transaction, so every
// mutation here is a Tx variant with a status guard.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, order_id, seat_id, seat_label, price_cents, status, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	var t model.Ticket
	if err := row.Scan(&t.ID, &t.OrderID, &t.SeatID, &t.SeatLabel, &t.PriceCents, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateBulkTx inserts one ticket per reserved seat in a single statement
// within the provided transaction.  Passing an empty slice is a no-op.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (order_id, seat_id, seat_label, price_cents, status) VALUES `
	args := make([]interface{}, 0, len(tickets)*5)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, t.OrderID, t.SeatID, t.SeatLabel, t.PriceCents, t.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByOrder returns all tickets of an order ordered by id.
func (r *TicketRepo) GetByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetByOrderTx is GetByOrder inside an existing transaction.
func (r *TicketRepo) GetByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.Ticket, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// BulkUpdateStatusTx transitions the listed tickets from an expected
// status to a new one and reports how many rows moved.  Zero affected
// rows for a ticket means another actor settled it first.
func (r *TicketRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, from, to model.TicketStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE tickets SET status = ? WHERE status = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{to, from}, idArgs(ids)...)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateStatusByOrderTx transitions every ticket of an order that is in
// the expected status, e.g. all RESERVED tickets to CONFIRMED on a
// verified payment.
func (r *TicketRepo) UpdateStatusByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64, from, to model.TicketStatus) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE order_id = ? AND status = ?`, to, orderID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelBySeatTx cancels the RESERVED ticket tied to an expired seat hold.
// It reports whether a ticket actually moved so the sweeper can skip
// holds that were settled in the meantime.
func (r *TicketRepo) CancelBySeatTx(ctx context.Context, tx *sql.Tx, orderID, seatID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE order_id = ? AND seat_id = ? AND status = ?`,
		model.TicketCancelled, orderID, seatID, model.TicketReserved)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountActiveTx counts the order's tickets that are neither CANCELLED nor
// REFUNDED.  The sweeper expires an order once this reaches zero.
func (r *TicketRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, orderID uint64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE order_id = ? AND status NOT IN (?, ?)`,
		orderID, model.TicketCancelled, model.TicketRefunded).Scan(&n)
	return n, err
}
