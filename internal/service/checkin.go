package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
)

// CheckIn validates boarding at the bus door: the agent scans a link
// carrying the order id and an HMAC token, and every CONFIRMED ticket of
// the order is marked CHECKED_IN in one batch.  The token is derived
// from the order reference alone, so boarding passes work offline and
// without a customer account.
type CheckIn struct {
	db      *sql.DB
	orders  *repository.OrderRepo
	tickets *repository.TicketRepo
	secret  []byte
}

// NewCheckIn wires the check-in service with the signing secret.
func NewCheckIn(db *sql.DB, orders *repository.OrderRepo, tickets *repository.TicketRepo, secret string) *CheckIn {
	return &CheckIn{db: db, orders: orders, tickets: tickets, secret: []byte(secret)}
}

// Token computes the check-in token for an order: lowercase hex
// HMAC-SHA256 over the canonical order reference.
func (s *CheckIn) Token(orderID uint64) string {
	return checkinToken(s.secret, orderID)
}

// Board verifies the token and checks in every CONFIRMED ticket of the
// order.  An invalid token fails with ErrInvalidToken before any lookup;
// an order with no eligible tickets is a no-op success, not an error
// (the agent may scan the same pass twice).  Returns the order and how
// many tickets moved.
func (s *CheckIn) Board(ctx context.Context, orderID uint64, token string) (*model.Order, int64, error) {
	want := checkinToken(s.secret, orderID)
	if !hmac.Equal([]byte(token), []byte(want)) {
		return nil, 0, ErrInvalidToken
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	moved, err := s.tickets.UpdateStatusByOrderTx(ctx, tx, orderID, model.TicketConfirmed, model.TicketCheckedIn)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	committed = true
	return order, moved, nil
}

// checkinToken signs the canonical order reference ("ORD-<id>") with
// HMAC-SHA256.  Comparison always goes through hmac.Equal so token
// checks are constant time.
func checkinToken(secret []byte, orderID uint64) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "ORD-%d", orderID)
	return hex.EncodeToString(mac.Sum(nil))
}
