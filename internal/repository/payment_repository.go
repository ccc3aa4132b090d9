package repository

import (
	"context"
	"database/sql"

	"github.com/busline/booking-engine/internal/model"
)

// PaymentRepo provides data access to the payments table.  A payment is
// looked up by its merchant reference when a gateway callback arrives;
// status changes are guarded so replayed callbacks and the sweeper cannot
// double-transition a row.  Payment rows are never deleted.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the provided database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, order_id, method_code, amount_cents, merchant_ref, gateway_txn_no, status, expired_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var txnNo sql.NullString
	if err := row.Scan(
		&p.ID, &p.OrderID, &p.MethodCode, &p.AmountCents, &p.MerchantRef,
		&txnNo, &p.Status, &p.ExpiredAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if txnNo.Valid {
		p.GatewayTxnNo = &txnNo.String
	}
	return &p, nil
}

// CreateTx inserts a payment within the provided transaction and
// populates its generated ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (order_id, method_code, amount_cents, merchant_ref, status, expired_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.MethodCode, p.AmountCents, p.MerchantRef, p.Status, p.ExpiredAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByMerchantRef resolves the payment a gateway callback refers to.
// Returns ErrPaymentNotFound for unknown references.
func (r *PaymentRepo) GetByMerchantRef(ctx context.Context, merchantRef string) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE merchant_ref = ?`, merchantRef))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// GetByOrder returns the payment of an order, if one exists.  Cash orders
// carry a payment row as well so refunds have a uniform path.
func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID uint64) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ?`, orderID))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// SettleTx finalizes a payment from one of the expected in-flight states
// (PENDING or PROCESSING) and records the gateway transaction number.
// Zero rows affected means the payment was already settled or expired;
// callers treat that as "someone else won" and re-read the row.
func (r *PaymentRepo) SettleTx(ctx context.Context, tx *sql.Tx, id uint64, to model.PaymentStatus, gatewayTxnNo string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, gateway_txn_no = ? WHERE id = ? AND status IN (?, ?)`,
		to, gatewayTxnNo, id, model.PaymentPending, model.PaymentProcessing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateStatusTx moves a payment from an expected status to a new one and
// reports whether the guarded update happened.  The sweeper uses it for
// PENDING → EXPIRED.
func (r *PaymentRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.PaymentStatus) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
