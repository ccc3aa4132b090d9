package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/busline/booking-engine/internal/gateway"
	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/queue"
	"github.com/busline/booking-engine/internal/repository"
)

// GuestInfo identifies an unregistered purchaser.  Email is mandatory;
// name and phone are kept for the manifest and receipts.
type GuestInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CreateOrderRequest is the settlement entry point's input: the seats to
// buy, who is buying them, how they intend to pay and optional gateway
// hints (return URL, client IP, locale) forwarded to the adapter.
type CreateOrderRequest struct {
	SeatIDs    []uint64
	UserID     *uint64
	Guest      *GuestInfo
	MethodCode string
	CouponCode string
	ReturnURL  string
	ClientIP   string
	Locale     string
}

// CreateOrderResult carries the pending (or, for cash, already paid)
// order back to the client together with the gateway redirect URL when
// one exists.
type CreateOrderResult struct {
	Order      *model.Order
	Tickets    []model.Ticket
	PaymentURL string
}

// Settlement orchestrates order creation end-to-end and reconciles
// gateway callbacks.  All seat/order/ticket/payment writes of one
// settlement attempt happen in a single transaction; a failure anywhere
// rolls the whole attempt back so seats never leak into RESERVED limbo.
type Settlement struct {
	db       *sql.DB
	trips    *repository.TripRepo
	seats    *repository.SeatRepo
	orders   *repository.OrderRepo
	tickets  *repository.TicketRepo
	payments *repository.PaymentRepo
	coupons  *repository.CouponRepo

	reservation *Reservation
	pricing     *Pricing
	gateways    *gateway.Registry
	cache       *SeatCache

	window  time.Duration
	now     func() time.Time
	publish func(context.Context, queue.OrderSettledEvent) error
}

// NewSettlement wires the settlement orchestrator.  window is the seat
// reservation window; publish may be nil to disable event publishing.
func NewSettlement(
	db *sql.DB,
	trips *repository.TripRepo,
	seats *repository.SeatRepo,
	orders *repository.OrderRepo,
	tickets *repository.TicketRepo,
	payments *repository.PaymentRepo,
	coupons *repository.CouponRepo,
	gateways *gateway.Registry,
	cache *SeatCache,
	window time.Duration,
	publish func(context.Context, queue.OrderSettledEvent) error,
) *Settlement {
	return &Settlement{
		db:          db,
		trips:       trips,
		seats:       seats,
		orders:      orders,
		tickets:     tickets,
		payments:    payments,
		coupons:     coupons,
		reservation: NewReservation(seats),
		pricing:     NewPricing(coupons),
		gateways:    gateways,
		cache:       cache,
		window:      window,
		now:         time.Now,
		publish:     publish,
	}
}

// CreateOrder turns a booking request into a PENDING order with an
// initiated payment, or an immediately PAID order for cash.  On any
// failure before commit nothing is persisted; if the gateway initiation
// after commit fails, a compensating transaction releases the seats and
// cancels the order so no hold outlives the failure.
func (s *Settlement) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validatePurchaser(req); err != nil {
		return nil, err
	}
	adapter, err := s.gateways.Get(req.MethodCode)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown payment method %q", req.MethodCode)}
	}
	isCash := strings.EqualFold(req.MethodCode, gateway.MethodCash)
	now := s.now().UTC()
	holdUntil := now.Add(s.window)

	var guestEmail *string
	if req.Guest != nil {
		guestEmail = &req.Guest.Email
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order := &model.Order{UserID: req.UserID, Status: model.OrderPending}
	if req.Guest != nil {
		order.GuestEmail = &req.Guest.Email
		order.GuestName = &req.Guest.Name
		order.GuestPhone = &req.Guest.Phone
	}
	if err := s.orders.CreateTx(ctx, tx, order); err != nil {
		return nil, err
	}

	seats, err := s.reservation.ReserveTx(ctx, tx, order.ID, req.SeatIDs, holdUntil)
	if err != nil {
		return nil, err
	}
	tripID := seats[0].TripID

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.Evaluate(ctx, trip, len(seats), req.CouponCode, req.UserID, guestEmail)
	if err != nil {
		return nil, err
	}
	if err := s.orders.SetTotalsTx(ctx, tx, order.ID, tripID, quote.BaseCents, quote.DiscountCents, quote.FinalCents); err != nil {
		return nil, err
	}
	order.TripID = tripID
	order.TotalBaseCents = quote.BaseCents
	order.TotalDiscountCents = quote.DiscountCents
	order.TotalFinalCents = quote.FinalCents

	tickets := splitTickets(order.ID, seats, quote.FinalCents)
	if err := s.tickets.CreateBulkTx(ctx, tx, tickets); err != nil {
		return nil, err
	}

	if quote.Coupon != nil {
		usage := &model.CouponUsage{CouponID: quote.Coupon.ID, OrderID: order.ID, UserID: req.UserID, GuestEmail: guestEmail}
		if err := s.coupons.RecordUsageTx(ctx, tx, usage); err != nil {
			return nil, err
		}
		if err := s.orders.AttachCouponUsageTx(ctx, tx, order.ID, usage.ID); err != nil {
			return nil, err
		}
		order.CouponUsageID = &usage.ID
	}

	payment := &model.Payment{
		OrderID:     order.ID,
		MethodCode:  strings.ToUpper(req.MethodCode),
		AmountCents: quote.FinalCents,
		MerchantRef: "ORD-" + uuid.NewString(),
		Status:      model.PaymentPending,
		ExpiredAt:   holdUntil,
	}

	if isCash {
		// Cash settles synchronously: no gateway round trip, the clerk has
		// the money in hand.
		payment.Status = model.PaymentCompleted
		if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
			return nil, err
		}
		if _, err := s.orders.UpdateStatusTx(ctx, tx, order.ID, model.OrderPending, model.OrderPaid); err != nil {
			return nil, err
		}
		if _, err := s.tickets.UpdateStatusByOrderTx(ctx, tx, order.ID, model.TicketReserved, model.TicketConfirmed); err != nil {
			return nil, err
		}
		if _, err := s.seats.ConfirmOwnedTx(ctx, tx, order.ID); err != nil {
			return nil, err
		}
		order.Status = model.OrderPaid
		for i := range tickets {
			tickets[i].Status = model.TicketConfirmed
		}
	} else {
		if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.cache.Invalidate(ctx, tripID)

	if isCash {
		s.publishSettled(ctx, order, payment, tickets)
		return &CreateOrderResult{Order: order, Tickets: tickets}, nil
	}

	initiated, err := adapter.Initiate(ctx, gateway.InitiateRequest{
		MerchantRef: payment.MerchantRef,
		AmountCents: payment.AmountCents,
		OrderInfo:   fmt.Sprintf("Bus tickets order %d", order.ID),
		ReturnURL:   req.ReturnURL,
		ClientIP:    req.ClientIP,
		Locale:      req.Locale,
	})
	if err != nil {
		// The hold is already committed; compensate so no seat stays
		// RESERVED past a failed initiation.
		s.abandonOrder(ctx, order, payment)
		return nil, err
	}
	return &CreateOrderResult{Order: order, Tickets: tickets, PaymentURL: initiated.PaymentURL}, nil
}

// HandleCallback reconciles a provider callback into order state.  It is
// idempotent: replays of an already-settled payment return the current
// order untouched.  Signature failures are rejected before any state is
// read or written.
func (s *Settlement) HandleCallback(ctx context.Context, providerCode string, params url.Values) (*model.Order, error) {
	adapter, err := s.gateways.Get(providerCode)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown payment provider %q", providerCode)}
	}
	result, err := adapter.Verify(params)
	if err != nil {
		return nil, err
	}

	if !s.cache.AcquireCallbackLock(ctx, result.MerchantRef, 30*time.Second) {
		// A twin delivery is being processed right now; report current state.
		payment, err := s.payments.GetByMerchantRef(ctx, result.MerchantRef)
		if err != nil {
			return nil, err
		}
		return s.orders.GetByID(ctx, payment.OrderID)
	}

	payment, err := s.payments.GetByMerchantRef(ctx, result.MerchantRef)
	if err != nil {
		s.cache.ReleaseCallbackLock(ctx, result.MerchantRef)
		return nil, err
	}
	if settled(payment.Status) {
		// Duplicate webhook delivery; success, not an error.
		return s.orders.GetByID(ctx, payment.OrderID)
	}

	order, err := s.settle(ctx, payment, result)
	if err != nil {
		s.cache.ReleaseCallbackLock(ctx, result.MerchantRef)
		return nil, err
	}
	return order, nil
}

func (s *Settlement) settle(ctx context.Context, payment *model.Payment, result *gateway.CallbackResult) (*model.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	to := model.PaymentCompleted
	if !result.Success {
		to = model.PaymentFailed
	}
	moved, err := s.payments.SettleTx(ctx, tx, payment.ID, to, result.GatewayTxnNo)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost the race against the sweeper or a twin callback; the row's
		// current state is the truth now.
		return s.orders.GetByID(ctx, payment.OrderID)
	}

	if result.Success {
		if _, err := s.orders.UpdateStatusTx(ctx, tx, payment.OrderID, model.OrderPending, model.OrderPaid); err != nil {
			return nil, err
		}
		if _, err := s.tickets.UpdateStatusByOrderTx(ctx, tx, payment.OrderID, model.TicketReserved, model.TicketConfirmed); err != nil {
			return nil, err
		}
		if _, err := s.seats.ConfirmOwnedTx(ctx, tx, payment.OrderID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.orders.UpdateStatusTx(ctx, tx, payment.OrderID, model.OrderPending, model.OrderCancelled); err != nil {
			return nil, err
		}
		if _, err := s.tickets.UpdateStatusByOrderTx(ctx, tx, payment.OrderID, model.TicketReserved, model.TicketCancelled); err != nil {
			return nil, err
		}
		if _, err := s.seats.ReleaseOwnedTx(ctx, tx, payment.OrderID); err != nil {
			return nil, err
		}
	}

	order, err := s.orders.GetByIDTx(ctx, tx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.cache.Invalidate(ctx, order.TripID)
	payment.Status = to
	tickets, _ := s.tickets.GetByOrder(ctx, order.ID)
	s.publishSettled(ctx, order, payment, tickets)
	return order, nil
}

// abandonOrder compensates a committed hold after gateway initiation
// failed: seats back to AVAILABLE, tickets and order CANCELLED, payment
// FAILED.  Rows are kept (not deleted) for the audit trail.
func (s *Settlement) abandonOrder(ctx context.Context, order *model.Order, payment *model.Payment) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("settlement: abandon order %d: begin tx: %v", order.ID, err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.seats.ReleaseOwnedTx(ctx, tx, order.ID); err != nil {
		log.Printf("settlement: abandon order %d: release seats: %v", order.ID, err)
		return
	}
	if _, err := s.tickets.UpdateStatusByOrderTx(ctx, tx, order.ID, model.TicketReserved, model.TicketCancelled); err != nil {
		log.Printf("settlement: abandon order %d: cancel tickets: %v", order.ID, err)
		return
	}
	if _, err := s.orders.UpdateStatusTx(ctx, tx, order.ID, model.OrderPending, model.OrderCancelled); err != nil {
		log.Printf("settlement: abandon order %d: cancel order: %v", order.ID, err)
		return
	}
	if _, err := s.payments.UpdateStatusTx(ctx, tx, payment.ID, model.PaymentPending, model.PaymentFailed); err != nil {
		log.Printf("settlement: abandon order %d: fail payment: %v", order.ID, err)
		return
	}
	if err := tx.Commit(); err != nil {
		log.Printf("settlement: abandon order %d: commit: %v", order.ID, err)
		return
	}
	s.cache.Invalidate(ctx, order.TripID)
}

func (s *Settlement) publishSettled(ctx context.Context, order *model.Order, payment *model.Payment, tickets []model.Ticket) {
	if s.publish == nil {
		return
	}
	labels := make([]string, 0, len(tickets))
	for _, t := range tickets {
		labels = append(labels, t.SeatLabel)
	}
	ev := queue.OrderSettledEvent{
		OrderID:         order.ID,
		Status:          string(order.Status),
		MethodCode:      payment.MethodCode,
		MerchantRef:     payment.MerchantRef,
		SeatLabels:      labels,
		TotalFinalCents: order.TotalFinalCents,
		SettledAt:       s.now().UTC().Format(time.RFC3339),
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("settlement: publish order %d settled: %v", order.ID, err)
	}
}

// splitTickets builds one RESERVED ticket per seat, dividing the final
// price evenly with the remainder cents on the first ticket so the
// ticket prices always sum to the order total.
func splitTickets(orderID uint64, seats []model.Seat, finalCents int64) []model.Ticket {
	n := int64(len(seats))
	share := finalCents / n
	remainder := finalCents % n
	tickets := make([]model.Ticket, 0, len(seats))
	for i, seat := range seats {
		price := share
		if i == 0 {
			price += remainder
		}
		tickets = append(tickets, model.Ticket{
			OrderID:    orderID,
			SeatID:     seat.ID,
			SeatLabel:  seat.Label,
			PriceCents: price,
			Status:     model.TicketReserved,
		})
	}
	return tickets
}

func validatePurchaser(req CreateOrderRequest) error {
	if req.UserID != nil && req.Guest != nil {
		return &ValidationError{Msg: "provide either user_id or guest_info, not both"}
	}
	if req.UserID == nil && req.Guest == nil {
		return &ValidationError{Msg: "purchaser identity is required"}
	}
	if req.Guest != nil && strings.TrimSpace(req.Guest.Email) == "" {
		return &ValidationError{Msg: "guest email is required"}
	}
	return nil
}

// settled reports whether a payment already reached a terminal state.
func settled(st model.PaymentStatus) bool {
	switch st {
	case model.PaymentCompleted, model.PaymentFailed, model.PaymentCancelled, model.PaymentExpired:
		return true
	}
	return false
}
