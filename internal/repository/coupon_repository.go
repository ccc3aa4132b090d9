package repository

import (
	"context"
	"database/sql"

	"github.com/busline/booking-engine/internal/model"
)

// CouponRepo provides read access to coupons and write access to coupon
// usages.  Coupon administration is external; the engine validates
// eligibility at settlement time and records consumption inside the
// settlement transaction so an aborted order never burns a coupon.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the provided database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

// GetByCode looks up a coupon by its code, case-insensitively.  Returns
// ErrCouponNotFound when no coupon matches.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, discount_type, discount_value, max_usage, is_active, expires_at, created_at
		 FROM coupons WHERE UPPER(code) = UPPER(?)`, code).
		Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxUsage, &c.IsActive, &c.ExpiresAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountUsage returns how many orders have consumed the coupon, for
// enforcing the coupon-level usage cap.
func (r *CouponRepo) CountUsage(ctx context.Context, couponID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ?`, couponID).Scan(&n)
	return n, err
}

// HasBeenUsedBy reports whether the given purchaser already consumed the
// coupon.  Registered users are matched by user id, guests by email.
func (r *CouponRepo) HasBeenUsedBy(ctx context.Context, couponID uint64, userID *uint64, guestEmail *string) (bool, error) {
	var n int64
	var err error
	switch {
	case userID != nil:
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND user_id = ?`,
			couponID, *userID).Scan(&n)
	case guestEmail != nil:
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND guest_email = ?`,
			couponID, *guestEmail).Scan(&n)
	default:
		return false, nil
	}
	return n > 0, err
}

// RecordUsageTx inserts a coupon usage within the settlement transaction
// and populates its generated ID.
func (r *CouponRepo) RecordUsageTx(ctx context.Context, tx *sql.Tx, u *model.CouponUsage) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO coupon_usages (coupon_id, order_id, user_id, guest_email) VALUES (?, ?, ?, ?)`,
		u.CouponID, u.OrderID, nullableID(u.UserID), nullableStr(u.GuestEmail))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}
