// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/busline/booking-engine/internal/handler"
	"github.com/busline/booking-engine/internal/middleware"
)

// Register wires every route of the booking engine onto the provided
// Echo instance.  Order creation accepts both authenticated users and
// guests, so identity is attached opportunistically rather than
// enforced; gateway callbacks and check-in carry their own credentials
// (signatures and HMAC tokens respectively).
func Register(e *echo.Echo, jwtSecret string, orders *handler.OrderHandler, trips *handler.TripHandler, callbacks *handler.CallbackHandler, checkin *handler.CheckInHandler) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.OptionalIdentity(jwtSecret))

	// Booking and settlement.
	v1.POST("/orders", orders.Create)
	v1.GET("/orders/:id", orders.Get)
	v1.POST("/orders/refund", orders.Refund)

	// Provider callbacks: VNPay redirects with query parameters, MoMo
	// and ZaloPay post JSON, so both verbs land on the same handler.
	v1.GET("/payments/callback/:provider", callbacks.Handle)
	v1.POST("/payments/callback/:provider", callbacks.Handle)

	// Boarding.
	v1.GET("/check-in/:id", checkin.Board)
	v1.GET("/check-in/:id/qr", checkin.QR)

	// Trip lifecycle slice owned by the engine: seat materialization,
	// the public seat map, seat detachment on delete.
	v1.POST("/trips", trips.Create)
	v1.GET("/trips/:id/seats", trips.Seats)
	v1.DELETE("/trips/:id", trips.Delete)
}
