// Package repository implements data access over database/sql.  This file
// defines sentinel errors shared by multiple repositories so that higher
// layers can distinguish failure scenarios with errors.Is.  For example,
// ErrSeatConflict signals that a conditional seat update matched zero rows
// because another request changed the seat first.
package repository

import "errors"

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatConflict is returned when a compare-and-swap style seat update
// affects zero rows, i.e. the seat was not in the expected status.  This
// is the normal outcome of losing a reservation race and handlers should
// translate it into an HTTP 409 response.
var ErrSeatConflict = errors.New("seat status conflict")

// ErrTripNotFound is returned when a trip lookup yields no rows.
var ErrTripNotFound = errors.New("trip not found")

// ErrOrderNotFound is returned when an order lookup yields no rows.
var ErrOrderNotFound = errors.New("order not found")

// ErrPaymentNotFound is returned when a payment lookup yields no rows,
// including callbacks referencing an unknown merchant reference.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrCouponNotFound is returned when no coupon matches the supplied code.
var ErrCouponNotFound = errors.New("coupon not found")
