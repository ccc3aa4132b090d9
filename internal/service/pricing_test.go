package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/service"
)

func TestDiscount_Percent(t *testing.T) {
	c := &model.Coupon{DiscountType: model.DiscountPercent, DiscountValue: 10}
	assert.Equal(t, int64(45000), service.Discount(c, 450000))
}

func TestDiscount_Fixed(t *testing.T) {
	c := &model.Coupon{DiscountType: model.DiscountFixed, DiscountValue: 30000}
	assert.Equal(t, int64(30000), service.Discount(c, 450000))
}

func TestDiscount_ClampedToBase(t *testing.T) {
	// A fixed discount larger than the order never makes the total
	// negative.
	c := &model.Coupon{DiscountType: model.DiscountFixed, DiscountValue: 500000}
	assert.Equal(t, int64(150000), service.Discount(c, 150000))

	c = &model.Coupon{DiscountType: model.DiscountPercent, DiscountValue: 150}
	assert.Equal(t, int64(150000), service.Discount(c, 150000))
}

func TestDiscount_NegativeValueClampedToZero(t *testing.T) {
	c := &model.Coupon{DiscountType: model.DiscountFixed, DiscountValue: -100}
	assert.Equal(t, int64(0), service.Discount(c, 150000))
}

func TestDiscount_UnknownTypeIsZero(t *testing.T) {
	c := &model.Coupon{DiscountType: "BOGOF", DiscountValue: 50}
	assert.Equal(t, int64(0), service.Discount(c, 150000))
}

func TestEvaluate_NoCouponChargesFullPrice(t *testing.T) {
	p := service.NewPricing(nil)
	trip := &model.Trip{PriceCents: 150000}

	q, err := p.Evaluate(context.Background(), trip, 3, "", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(450000), q.BaseCents)
	assert.Equal(t, int64(0), q.DiscountCents)
	assert.Equal(t, int64(450000), q.FinalCents)
	assert.Nil(t, q.Coupon)
}
