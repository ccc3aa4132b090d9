package model

import "time"

// OrderStatus enumerates the lifecycle of an order.  Orders only move
// forward: a CANCELLED, EXPIRED or REFUNDED order is never resurrected.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
	OrderExpired   OrderStatus = "EXPIRED"
)

// Order is the aggregate root for a purchase.  The purchaser is either a
// registered user (UserID set) or a guest identified by a contact triple;
// exactly one of the two forms is present.  An order owns its tickets and
// at most one payment.
//
// Invariant: TotalFinalCents = TotalBaseCents - TotalDiscountCents >= 0.
type Order struct {
	ID                 uint64      // orders.id
	TripID             uint64      // orders.trip_id (reservation enforces one trip per order)
	UserID             *uint64     // orders.user_id (nullable for guests)
	GuestEmail         *string     // orders.guest_email
	GuestName          *string     // orders.guest_name
	GuestPhone         *string     // orders.guest_phone
	TotalBaseCents     int64       // orders.total_base_cents
	TotalDiscountCents int64       // orders.total_discount_cents
	TotalFinalCents    int64       // orders.total_final_cents
	Status             OrderStatus // orders.status
	CouponUsageID      *uint64     // orders.coupon_usage_id (nullable)
	CreatedAt          time.Time   // orders.created_at
	UpdatedAt          time.Time   // orders.updated_at
}

// IsGuest reports whether the order was placed without a registered user.
func (o *Order) IsGuest() bool { return o.UserID == nil }
