package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolvesCaseInsensitively(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCash())

	a, err := r.Get("cash")
	require.NoError(t, err)
	assert.Equal(t, MethodCash, a.Code())

	a, err = r.Get("CASH")
	require.NoError(t, err)
	assert.Equal(t, MethodCash, a.Code())
}

func TestRegistry_UnknownMethod(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCash())

	_, err := r.Get("PAYPAL")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRegistry_Codes(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Codes())

	r.Register(NewCash())
	r.Register(NewVNPay(VNPayConfig{}, nil))
	assert.ElementsMatch(t, []string{MethodCash, MethodVNPay}, r.Codes())
}

func TestCash_SettlesWithoutProvider(t *testing.T) {
	c := NewCash()

	res, err := c.Initiate(context.Background(), InitiateRequest{MerchantRef: "ORD-abc"})
	require.NoError(t, err)
	assert.Empty(t, res.PaymentURL)

	_, err = c.Verify(nil)
	assert.Error(t, err)

	assert.NoError(t, c.Refund(context.Background(), RefundRequest{}))
}

func TestGatewayError_UnwrapsCause(t *testing.T) {
	cause := ErrSignatureMismatch
	err := &GatewayError{Provider: MethodVNPay, Op: "verify", Err: cause}

	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Contains(t, err.Error(), "vnpay verify")
}
