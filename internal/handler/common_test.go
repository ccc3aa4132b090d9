package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/gateway"
	"github.com/busline/booking-engine/internal/repository"
	"github.com/busline/booking-engine/internal/service"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, respondError(e.NewContext(req, rec), err))
	return rec
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &service.ValidationError{Msg: "duplicate seat ids"}, http.StatusBadRequest},
		{"seats taken", &service.SeatUnavailableError{SeatIDs: []uint64{3, 5}}, http.StatusConflict},
		{"coupon", &service.CouponInvalidError{Code: "SUMMER", Reason: service.CouponExpired}, http.StatusBadRequest},
		{"refund", &service.RefundIneligibleError{TicketIDs: []uint64{9}, Msg: "not confirmed"}, http.StatusConflict},
		{"seat conflict", repository.ErrSeatConflict, http.StatusConflict},
		{"bad token", service.ErrInvalidToken, http.StatusForbidden},
		{"bad layout", service.ErrInvalidLayout, http.StatusBadRequest},
		{"bad signature", gateway.ErrSignatureMismatch, http.StatusBadRequest},
		{"trip missing", repository.ErrTripNotFound, http.StatusNotFound},
		{"order missing", repository.ErrOrderNotFound, http.StatusNotFound},
		{"gateway down", &gateway.GatewayError{Provider: gateway.MethodMoMo, Op: "initiate", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := respond(t, tc.err)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRespondError_NamesConflictingSeats(t *testing.T) {
	rec := respond(t, &service.SeatUnavailableError{SeatIDs: []uint64{3, 5}})
	assert.JSONEq(t, `{"error":"some seats are unavailable","seat_ids":[3,5]}`, rec.Body.String())
}

func TestPathID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	c.SetParamValues("42")
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		_, ok := pathID(c, "id")
		assert.False(t, ok, "value %q should be rejected", bad)
	}
}

func TestUserIDFromContext(t *testing.T) {
	e := echo.New()
	newCtx := func() echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	}

	c := newCtx()
	assert.Nil(t, userIDFromContext(c))

	c = newCtx()
	c.Set("user_id", float64(7))
	require.NotNil(t, userIDFromContext(c))
	assert.Equal(t, uint64(7), *userIDFromContext(c))

	c = newCtx()
	c.Set("user_id", "12")
	require.NotNil(t, userIDFromContext(c))
	assert.Equal(t, uint64(12), *userIDFromContext(c))

	c = newCtx()
	c.Set("user_id", "not-a-number")
	assert.Nil(t, userIDFromContext(c))
}
