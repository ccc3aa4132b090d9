package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/busline/booking-engine/internal/gateway"
	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
	"github.com/busline/booking-engine/internal/service"
)

// userIDFromContext reads the optional identity the middleware stored.
// JWT numeric claims arrive as float64; the token issuer controls the
// claim type so both forms are accepted.
func userIDFromContext(c echo.Context) *uint64 {
	v := c.Get("user_id")
	switch id := v.(type) {
	case float64:
		u := uint64(id)
		return &u
	case uint64:
		return &id
	case string:
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// respondError maps engine errors onto the HTTP taxonomy.  Booking
// failures always name the seats, tickets or coupon at fault so the
// client can adjust its selection without guessing.
func respondError(c echo.Context, err error) error {
	var (
		validationErr *service.ValidationError
		seatErr       *service.SeatUnavailableError
		couponErr     *service.CouponInvalidError
		refundErr     *service.RefundIneligibleError
		gatewayErr    *gateway.GatewayError
	)
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationErr.Msg})
	case errors.As(err, &seatErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are unavailable", "seat_ids": seatErr.SeatIDs})
	case errors.As(err, &couponErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon rejected", "coupon": couponErr.Code, "reason": couponErr.Reason})
	case errors.As(err, &refundErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": "tickets not refundable", "ticket_ids": refundErr.TicketIDs, "reason": refundErr.Msg})
	case errors.Is(err, repository.ErrSeatConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat status conflict"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
	case errors.Is(err, service.ErrInvalidLayout):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle layout"})
	case errors.Is(err, gateway.ErrSignatureMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
	case errors.Is(err, repository.ErrTripNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.As(err, &gatewayErr):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway failure"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// orderPayload renders an order and its tickets for API responses.
func orderPayload(o *model.Order, tickets []model.Ticket) echo.Map {
	ts := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		ts = append(ts, echo.Map{
			"id":          t.ID,
			"seat_id":     t.SeatID,
			"seat_label":  t.SeatLabel,
			"price_cents": t.PriceCents,
			"status":      t.Status,
		})
	}
	return echo.Map{
		"id":                   o.ID,
		"trip_id":              o.TripID,
		"status":               o.Status,
		"total_base_cents":     o.TotalBaseCents,
		"total_discount_cents": o.TotalDiscountCents,
		"total_final_cents":    o.TotalFinalCents,
		"tickets":              ts,
	}
}
