// Package gateway defines the uniform adapter contract every payment
// provider must satisfy and the per-provider implementations (VNPay,
// MoMo, ZaloPay, plus manual cash).  The settlement service never talks
// to a provider directly; it selects an adapter from the registry by the
// order's payment method code.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Method codes the registry resolves adapters by.
const (
	MethodVNPay   = "VNPAY"
	MethodMoMo    = "MOMO"
	MethodZaloPay = "ZALOPAY"
	MethodCash    = "CASH"
)

// ErrUnknownMethod is returned when no adapter is registered for a
// payment method code.
var ErrUnknownMethod = errors.New("unknown payment method")

// ErrSignatureMismatch is returned by Verify when a callback's signature
// does not match the computed one.  Callbacks failing verification are
// permanently rejected, never retried.
var ErrSignatureMismatch = errors.New("callback signature mismatch")

// GatewayError wraps a provider-side failure (unreachable endpoint,
// non-OK response, malformed body).  Handlers map it to 502.
type GatewayError struct {
	Provider string
	Op       string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s %s: %v", strings.ToLower(e.Provider), e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// InitiateRequest carries everything an adapter needs to start a
// transaction with its provider.  MerchantRef is the idempotency key that
// identifies the transaction across retries and callbacks.
type InitiateRequest struct {
	MerchantRef string
	AmountCents int64
	OrderInfo   string
	ReturnURL   string
	ClientIP    string
	Locale      string
}

// InitiateResult is what the client needs to complete payment: the
// redirect URL for online providers, empty for manual methods.
type InitiateResult struct {
	PaymentURL string
	GatewayRef string
}

// CallbackResult is the provider-neutral reading of a verified callback.
// Success distinguishes a completed payment from a failed or cancelled
// one; both are legitimate verified outcomes.
type CallbackResult struct {
	MerchantRef  string
	GatewayTxnNo string
	AmountCents  int64
	ResponseCode string
	Success      bool
}

// RefundRequest asks the provider to return money for a settled
// transaction.
type RefundRequest struct {
	MerchantRef  string
	GatewayTxnNo string
	AmountCents  int64
	Reason       string
}

// Adapter is the capability every payment provider exposes.  Initiate and
// Refund carry a context because they call out to the provider and must
// respect the configured timeout; Verify is pure computation over the
// callback parameters.
type Adapter interface {
	Code() string
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(params url.Values) (*CallbackResult, error)
	Refund(ctx context.Context, req RefundRequest) error
}

// Registry maps method codes to adapters.  Lookup is a plain table, not
// inheritance; adapters register once at startup.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its method code, replacing any previous
// registration for the same code.
func (r *Registry) Register(a Adapter) {
	r.adapters[strings.ToUpper(a.Code())] = a
}

// Get resolves an adapter by method code.  Returns ErrUnknownMethod for
// codes with no registered adapter.
func (r *Registry) Get(code string) (Adapter, error) {
	a, ok := r.adapters[strings.ToUpper(code)]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return a, nil
}

// Codes lists the registered method codes, for error messages and the
// health endpoint.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.adapters))
	for c := range r.adapters {
		out = append(out, c)
	}
	return out
}
