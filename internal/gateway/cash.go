package gateway

import (
	"context"
	"errors"
	"net/url"
)

// Cash implements Adapter for over-the-counter payment.  There is no
// provider to call: the settlement service marks cash orders paid
// immediately, so Initiate returns an empty result, callbacks never
// arrive and refunds are handled at the counter.
type Cash struct{}

// NewCash returns the cash adapter.
func NewCash() *Cash { return &Cash{} }

// Code returns the method code this adapter is registered under.
func (c *Cash) Code() string { return MethodCash }

// Initiate is a no-op; cash orders settle synchronously.
func (c *Cash) Initiate(_ context.Context, _ InitiateRequest) (*InitiateResult, error) {
	return &InitiateResult{}, nil
}

// Verify always fails: no provider ever calls back for cash.
func (c *Cash) Verify(_ url.Values) (*CallbackResult, error) {
	return nil, errors.New("cash payments have no gateway callbacks")
}

// Refund is a no-op; the money is returned at the counter.
func (c *Cash) Refund(_ context.Context, _ RefundRequest) error { return nil }
