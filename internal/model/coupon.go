package model

import "time"

// Coupon discount kinds.  PERCENT applies DiscountValue as a percentage of
// the base price; FIXED subtracts DiscountValue cents outright.
const (
	DiscountPercent = "PERCENT"
	DiscountFixed   = "FIXED"
)

// Coupon is the read-only view of a promotion the engine validates at
// settlement time.  Coupon administration (creation, deactivation) is
// owned by an external service; the engine only checks eligibility and
// records usage.
type Coupon struct {
	ID            uint64    // coupons.id
	Code          string    // coupons.code (unique, case-insensitive)
	DiscountType  string    // coupons.discount_type (PERCENT | FIXED)
	DiscountValue int64     // coupons.discount_value (percent or cents)
	MaxUsage      int64     // coupons.max_usage (0 = unlimited)
	IsActive      bool      // coupons.is_active
	ExpiresAt     time.Time // coupons.expires_at
	CreatedAt     time.Time // coupons.created_at
}

// CouponUsage links a coupon to the order that consumed it.  At most one
// usage exists per order, and per user (or guest email) per coupon.
type CouponUsage struct {
	ID         uint64    // coupon_usages.id
	CouponID   uint64    // coupon_usages.coupon_id
	OrderID    uint64    // coupon_usages.order_id
	UserID     *uint64   // coupon_usages.user_id (nullable for guests)
	GuestEmail *string   // coupon_usages.guest_email (nullable)
	CreatedAt  time.Time // coupon_usages.created_at
}
