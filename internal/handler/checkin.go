package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/busline/booking-engine/internal/service"
)

// CheckInHandler validates boarding passes.  The scanned link carries the
// order id and an HMAC token; no login is required at the bus door.
type CheckInHandler struct {
	CheckIn *service.CheckIn
	// BaseURL is the public prefix encoded into boarding pass QR codes,
	// e.g. "https://booking.example.com".
	BaseURL string
}

// NewCheckInHandler constructs a CheckInHandler.
func NewCheckInHandler(checkin *service.CheckIn, baseURL string) *CheckInHandler {
	if checkin == nil {
		panic("nil checkin service passed to NewCheckInHandler")
	}
	return &CheckInHandler{CheckIn: checkin, BaseURL: baseURL}
}

// Board handles GET /v1/check-in/:id?token=...  A missing token is 400,
// a wrong one 403; a valid token checks in every CONFIRMED ticket of the
// order and reports how many moved (zero is a success, the pass may be
// scanned twice).
func (h *CheckInHandler) Board(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	order, moved, err := h.CheckIn.Board(c.Request().Context(), orderID, token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id":   order.ID,
		"status":     order.Status,
		"checked_in": moved,
	})
}

// QR handles GET /v1/check-in/:id/qr and renders the check-in link as a
// PNG for the boarding pass email.
func (h *CheckInHandler) QR(c echo.Context) error {
	orderID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	link := fmt.Sprintf("%s/v1/check-in/%d?token=%s", h.BaseURL, orderID, h.CheckIn.Token(orderID))
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render qr code"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
