package repository

import (
	"context"
	"database/sql"

	"github.com/busline/booking-engine/internal/model"
)

// OrderRepo provides data access to the orders table.  Status updates are
// guarded by the expected current status so that concurrent actors (a
// gateway callback racing the expiry sweeper, say) cannot overwrite each
// other: whichever transition commits first wins and the loser's update
// affects zero rows.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the provided database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, trip_id, user_id, guest_email, guest_name, guest_phone,
	total_base_cents, total_discount_cents, total_final_cents, status, coupon_usage_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var userID, usageID sql.NullInt64
	var gEmail, gName, gPhone sql.NullString
	if err := row.Scan(
		&o.ID, &o.TripID, &userID, &gEmail, &gName, &gPhone,
		&o.TotalBaseCents, &o.TotalDiscountCents, &o.TotalFinalCents, &o.Status, &usageID,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		o.UserID = &v
	}
	if usageID.Valid {
		v := uint64(usageID.Int64)
		o.CouponUsageID = &v
	}
	if gEmail.Valid {
		o.GuestEmail = &gEmail.String
	}
	if gName.Valid {
		o.GuestName = &gName.String
	}
	if gPhone.Valid {
		o.GuestPhone = &gPhone.String
	}
	return &o, nil
}

// CreateTx inserts a new order within the provided transaction and
// populates its generated ID.  The caller commits or rolls back.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (trip_id, user_id, guest_email, guest_name, guest_phone,
		   total_base_cents, total_discount_cents, total_final_cents, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.TripID, nullableID(o.UserID), nullableStr(o.GuestEmail), nullableStr(o.GuestName), nullableStr(o.GuestPhone),
		o.TotalBaseCents, o.TotalDiscountCents, o.TotalFinalCents, o.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByID retrieves an order.  Returns ErrOrderNotFound when absent.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// UpdateStatusTx moves an order from an expected status to a new one and
// reports whether the guarded update actually happened.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.OrderStatus) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetTotalsTx writes the priced totals once the reservation and coupon
// evaluation inside the settlement transaction have produced them, and
// binds the order to its trip.
func (r *OrderRepo) SetTotalsTx(ctx context.Context, tx *sql.Tx, id, tripID uint64, base, discount, final int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET trip_id = ?, total_base_cents = ?, total_discount_cents = ?, total_final_cents = ? WHERE id = ?`,
		tripID, base, discount, final, id)
	return err
}

// ReduceTotalsTx subtracts a refunded amount from the order's final total.
// Base and discount stay as recorded at purchase so the audit trail keeps
// what was originally charged.
func (r *OrderRepo) ReduceTotalsTx(ctx context.Context, tx *sql.Tx, id uint64, refundCents int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET total_final_cents = total_final_cents - ? WHERE id = ?`, refundCents, id)
	return err
}

// AttachCouponUsageTx records the coupon usage consumed by the order.
func (r *OrderRepo) AttachCouponUsageTx(ctx context.Context, tx *sql.Tx, orderID, usageID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET coupon_usage_id = ? WHERE id = ?`, usageID, orderID)
	return err
}

func nullableStr(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
