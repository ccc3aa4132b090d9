package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/busline/booking-engine/internal/repository"
	"github.com/busline/booking-engine/internal/service"
)

// OrderHandler exposes order creation, lookup and refunds.  All business
// rules live in the settlement and refund services; the handler binds
// the request, injects the caller's optional identity and maps errors.
type OrderHandler struct {
	Settlement *service.Settlement
	Refunds    *service.Refund
	Orders     *repository.OrderRepo
	Tickets    *repository.TicketRepo
}

// NewOrderHandler constructs an OrderHandler.  All dependencies must be
// non-nil.
func NewOrderHandler(settlement *service.Settlement, refunds *service.Refund, orders *repository.OrderRepo, tickets *repository.TicketRepo) *OrderHandler {
	if settlement == nil || refunds == nil || orders == nil || tickets == nil {
		panic("nil dependency passed to NewOrderHandler")
	}
	return &OrderHandler{Settlement: settlement, Refunds: refunds, Orders: orders, Tickets: tickets}
}

// Create handles POST /v1/orders.  Registered callers are identified by
// their bearer token; guests supply a contact triple in the body.  On
// success it returns 201 with the pending (or cash-paid) order and the
// gateway redirect URL when one exists.
func (h *OrderHandler) Create(c echo.Context) error {
	var body struct {
		SeatIDs    []uint64           `json:"seat_ids"`
		GuestInfo  *service.GuestInfo `json:"guest_info"`
		MethodCode string             `json:"payment_method_code"`
		CouponCode string             `json:"coupon_code"`
		ReturnURL  string             `json:"return_url"`
		Locale     string             `json:"locale"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req := service.CreateOrderRequest{
		SeatIDs:    body.SeatIDs,
		UserID:     userIDFromContext(c),
		Guest:      body.GuestInfo,
		MethodCode: body.MethodCode,
		CouponCode: body.CouponCode,
		ReturnURL:  body.ReturnURL,
		ClientIP:   c.RealIP(),
		Locale:     body.Locale,
	}
	result, err := h.Settlement.CreateOrder(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	resp := echo.Map{"order": orderPayload(result.Order, result.Tickets)}
	if result.PaymentURL != "" {
		resp["payment_url"] = result.PaymentURL
	}
	return c.JSON(http.StatusCreated, resp)
}

// Get handles GET /v1/orders/:id, used by payment-return pages to show
// the settled state.
func (h *OrderHandler) Get(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		return respondError(c, err)
	}
	tickets, err := h.Tickets.GetByOrder(ctx, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": orderPayload(order, tickets)})
}

// Refund handles POST /v1/orders/refund: a subset of an order's tickets
// is reversed through the gateway and the seats restored to inventory.
func (h *OrderHandler) Refund(c echo.Context) error {
	var body struct {
		OrderID      uint64   `json:"order_id"`
		TicketIDs    []uint64 `json:"ticket_ids"`
		RefundReason string   `json:"refund_reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
	}
	order, err := h.Refunds.RefundTickets(c.Request().Context(), body.OrderID, body.TicketIDs, body.RefundReason)
	if err != nil {
		return respondError(c, err)
	}
	tickets, _ := h.Tickets.GetByOrder(c.Request().Context(), order.ID)
	return c.JSON(http.StatusOK, echo.Map{"order": orderPayload(order, tickets)})
}
