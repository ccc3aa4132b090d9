// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderSettledEvent is published whenever an order reaches a terminal
// payment outcome: paid, cancelled by the gateway, expired by the sweeper
// or refunded.  It carries enough for downstream consumers (receipts,
// notifications, analytics) without querying the primary database.
type OrderSettledEvent struct {
	OrderID         uint64   `json:"order_id"`
	Status          string   `json:"status"`
	MethodCode      string   `json:"method_code"`
	MerchantRef     string   `json:"merchant_ref"`
	SeatLabels      []string `json:"seats"`
	TotalFinalCents int64    `json:"total_final_cents"`
	SettledAt       string   `json:"settled_at"`
}
