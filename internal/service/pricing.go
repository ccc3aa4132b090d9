package service

import (
	"context"
	"errors"
	"time"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
)

// Quote is the priced outcome of a booking request before settlement.
// Coupon is non-nil when a discount was applied; usage is only recorded
// later, inside the settlement transaction.
type Quote struct {
	BaseCents     int64
	DiscountCents int64
	FinalCents    int64
	Coupon        *model.Coupon
}

// Pricing computes the final price of a seat set and validates coupon
// eligibility.  Evaluation is read-only: nothing is written until the
// settlement transaction commits the usage.
type Pricing struct {
	coupons *repository.CouponRepo
	now     func() time.Time
}

// NewPricing returns a Pricing evaluator.
func NewPricing(coupons *repository.CouponRepo) *Pricing {
	return &Pricing{coupons: coupons, now: time.Now}
}

// Evaluate prices seatCount seats of a trip and applies the optional
// coupon.  A trip's advertised price is fixed at creation (route price +
// vehicle type price), so the base is simply price × seats.  An empty
// coupon code means zero discount; an invalid one fails with
// CouponInvalidError rather than silently charging full price.
func (p *Pricing) Evaluate(ctx context.Context, trip *model.Trip, seatCount int, couponCode string, userID *uint64, guestEmail *string) (*Quote, error) {
	base := trip.PriceCents * int64(seatCount)
	q := &Quote{BaseCents: base, FinalCents: base}
	if couponCode == "" {
		return q, nil
	}

	coupon, err := p.coupons.GetByCode(ctx, couponCode)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return nil, &CouponInvalidError{Code: couponCode, Reason: CouponNotFound}
		}
		return nil, err
	}
	if !coupon.IsActive {
		return nil, &CouponInvalidError{Code: couponCode, Reason: CouponInactive}
	}
	if p.now().UTC().After(coupon.ExpiresAt) {
		return nil, &CouponInvalidError{Code: couponCode, Reason: CouponExpired}
	}
	if coupon.MaxUsage > 0 {
		used, err := p.coupons.CountUsage(ctx, coupon.ID)
		if err != nil {
			return nil, err
		}
		if used >= coupon.MaxUsage {
			return nil, &CouponInvalidError{Code: couponCode, Reason: CouponExhausted}
		}
	}
	alreadyUsed, err := p.coupons.HasBeenUsedBy(ctx, coupon.ID, userID, guestEmail)
	if err != nil {
		return nil, err
	}
	if alreadyUsed {
		return nil, &CouponInvalidError{Code: couponCode, Reason: CouponAlreadyUsed}
	}

	q.DiscountCents = Discount(coupon, base)
	q.FinalCents = base - q.DiscountCents
	q.Coupon = coupon
	return q, nil
}

// Discount computes the coupon's discount against a base price, clamped
// so the final price never drops below zero.
func Discount(c *model.Coupon, baseCents int64) int64 {
	var d int64
	switch c.DiscountType {
	case model.DiscountPercent:
		d = baseCents * c.DiscountValue / 100
	case model.DiscountFixed:
		d = c.DiscountValue
	}
	if d > baseCents {
		d = baseCents
	}
	if d < 0 {
		d = 0
	}
	return d
}
