package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/busline/booking-engine/internal/gateway"
	"github.com/busline/booking-engine/internal/service"
)

// CallbackHandler receives provider webhooks and return redirects and
// feeds them into settlement reconciliation.  The signature is validated
// by the adapter before any state is touched; an unverifiable payload is
// permanently rejected, never retried.
type CallbackHandler struct {
	Settlement *service.Settlement
}

// NewCallbackHandler constructs a CallbackHandler.
func NewCallbackHandler(settlement *service.Settlement) *CallbackHandler {
	if settlement == nil {
		panic("nil settlement passed to NewCallbackHandler")
	}
	return &CallbackHandler{Settlement: settlement}
}

// Handle serves GET and POST /v1/payments/callback/:provider.  VNPay
// delivers signed query parameters; MoMo and ZaloPay post JSON bodies,
// which are flattened into the same parameter form the adapters verify.
// Acknowledgement shape follows each provider's convention.
func (h *CallbackHandler) Handle(c echo.Context) error {
	provider := strings.ToUpper(c.Param("provider"))
	params, err := callbackParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable callback payload"})
	}

	order, err := h.Settlement.HandleCallback(c.Request().Context(), provider, params)
	if err != nil {
		if errors.Is(err, gateway.ErrSignatureMismatch) {
			return ackError(c, provider, "signature verification failed")
		}
		return respondError(c, err)
	}
	return ackSuccess(c, provider, order.ID)
}

// callbackParams normalizes the provider payload into url.Values: query
// parameters for redirect-style callbacks, flattened JSON for IPN posts.
func callbackParams(c echo.Context) (url.Values, error) {
	if c.Request().Method == http.MethodGet {
		return c.QueryParams(), nil
	}
	var raw map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return nil, err
	}
	params := url.Values{}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			params.Set(k, val)
		case float64:
			// JSON numbers for ids/amounts; keep integer formatting.
			params.Set(k, strings.TrimSuffix(fmt.Sprintf("%.0f", val), ".0"))
		case bool:
			params.Set(k, fmt.Sprintf("%t", val))
		}
	}
	return params, nil
}

func ackSuccess(c echo.Context, provider string, orderID uint64) error {
	switch provider {
	case gateway.MethodVNPay:
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "00", "Message": "Confirm Success"})
	case gateway.MethodZaloPay:
		return c.JSON(http.StatusOK, echo.Map{"return_code": 1, "return_message": "success"})
	default:
		return c.JSON(http.StatusOK, echo.Map{"message": "ok", "order_id": orderID})
	}
}

func ackError(c echo.Context, provider, msg string) error {
	switch provider {
	case gateway.MethodVNPay:
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "97", "Message": "Invalid Checksum"})
	case gateway.MethodZaloPay:
		return c.JSON(http.StatusOK, echo.Map{"return_code": -1, "return_message": msg})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
}
