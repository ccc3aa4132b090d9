// Package service implements the booking and settlement engine: seat
// inventory materialization, reservation coordination, coupon-aware
// pricing, payment orchestration, expiry sweeping, refunds and check-in.
// This file defines the typed errors the engine surfaces; they carry the
// detail (conflicting seat IDs, coupon rejection reason) a client needs
// to adjust its request without guessing.
package service

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is returned by check-in when the HMAC token does not
// verify.  Handlers translate it into HTTP 403.
var ErrInvalidToken = errors.New("invalid check-in token")

// ErrInvalidLayout is returned by seat generation when the vehicle layout
// supplies neither a seat matrix nor a positive total seat count.
var ErrInvalidLayout = errors.New("invalid vehicle layout")

// ValidationError reports a malformed request (bad purchaser identity,
// duplicate seats, mixed trips).  Handlers translate it into HTTP 400 and
// surface the message verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// SeatUnavailableError is returned when a reservation attempt loses one
// or more seats to another order.  SeatIDs names every conflicting seat
// so the client can reselect.
type SeatUnavailableError struct {
	SeatIDs []uint64
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

// Coupon rejection reasons carried by CouponInvalidError.
const (
	CouponNotFound    = "not_found"
	CouponInactive    = "inactive"
	CouponExpired     = "expired"
	CouponExhausted   = "exhausted"
	CouponAlreadyUsed = "already_used"
)

// CouponInvalidError is returned when a supplied coupon code cannot be
// applied.  Reason is one of the constants above.
type CouponInvalidError struct {
	Code   string
	Reason string
}

func (e *CouponInvalidError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

// RefundIneligibleError is returned when a refund names tickets that are
// not CONFIRMED or do not belong to the order.  Handlers translate it
// into HTTP 409.
type RefundIneligibleError struct {
	TicketIDs []uint64
	Msg       string
}

func (e *RefundIneligibleError) Error() string {
	return fmt.Sprintf("tickets %v not refundable: %s", e.TicketIDs, e.Msg)
}
