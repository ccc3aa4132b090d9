package model

import "time"

// PaymentStatus enumerates the states of a gateway payment.  Transitions
// happen only via a verified gateway callback or sweeper expiry; payment
// rows are never deleted.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentExpired    PaymentStatus = "EXPIRED"
)

// Payment records one gateway transaction for an order.  MerchantRef is
// the idempotency key sent to the gateway and is how callbacks find their
// way back to the order; GatewayTxnNo stays empty until the provider's
// callback reports it.
type Payment struct {
	ID           uint64        // payments.id
	OrderID      uint64        // payments.order_id
	MethodCode   string        // payments.method_code (e.g. VNPAY, MOMO, ZALOPAY, CASH)
	AmountCents  int64         // payments.amount_cents
	MerchantRef  string        // payments.merchant_ref (unique)
	GatewayTxnNo *string       // payments.gateway_txn_no (nullable until callback)
	Status       PaymentStatus // payments.status
	ExpiredAt    time.Time     // payments.expired_at
	CreatedAt    time.Time     // payments.created_at
	UpdatedAt    time.Time     // payments.updated_at
}
