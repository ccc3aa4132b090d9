package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
	"github.com/busline/booking-engine/internal/service"
)

// TripHandler covers the slice of trip lifecycle the engine owns: seat
// materialization at creation, the public seat map, and seat detachment
// at deletion.  Route and vehicle CRUD live in the master-data service.
type TripHandler struct {
	Trips     *repository.TripRepo
	SeatRepo  *repository.SeatRepo
	Inventory *service.Inventory
	Cache     *service.SeatCache
}

// NewTripHandler constructs a TripHandler.  Cache may be nil.
func NewTripHandler(trips *repository.TripRepo, seats *repository.SeatRepo, inventory *service.Inventory, cache *service.SeatCache) *TripHandler {
	if trips == nil || seats == nil || inventory == nil {
		panic("nil dependency passed to NewTripHandler")
	}
	return &TripHandler{Trips: trips, SeatRepo: seats, Inventory: inventory, Cache: cache}
}

// Create handles POST /v1/trips: the trip row is inserted with its price
// fixed as route price + vehicle type price, then the seat set is
// materialized from the vehicle layout.  All seats start AVAILABLE.
func (h *TripHandler) Create(c echo.Context) error {
	var body struct {
		RouteName         string              `json:"route_name"`
		RoutePriceCents   int64               `json:"route_price_cents"`
		VehiclePriceCents int64               `json:"vehicle_price_cents"`
		DepartureAt       time.Time           `json:"departure_at"`
		Layout            model.VehicleLayout `json:"layout"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoutePriceCents < 0 || body.VehiclePriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices must be non-negative"})
	}

	ctx := c.Request().Context()
	tx, err := h.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	trip := &model.Trip{
		RouteName:   body.RouteName,
		PriceCents:  body.RoutePriceCents + body.VehiclePriceCents,
		DepartureAt: body.DepartureAt,
	}
	if err := h.Trips.CreateTx(ctx, tx, trip); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
	}
	committed = true

	seats, err := h.Inventory.MaterializeTrip(ctx, trip.ID, body.Layout)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"trip_id":     trip.ID,
		"price_cents": trip.PriceCents,
		"seat_count":  len(seats),
	})
}

// Seats handles GET /v1/trips/:id/seats, the public availability view
// clients pick from.  Responses are cached in Redis and invalidated on
// every seat status change.
func (h *TripHandler) Seats(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	if cached, ok := h.Cache.Get(ctx, tripID); ok {
		return c.JSONBlob(http.StatusOK, cached)
	}

	if _, err := h.Trips.GetByID(ctx, tripID); err != nil {
		return respondError(c, err)
	}
	seats, err := h.SeatRepo.GetByTrip(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type seatOut struct {
		ID     uint64           `json:"id"`
		Label  string           `json:"label"`
		Floor  uint32           `json:"floor"`
		Status model.SeatStatus `json:"status"`
	}
	out := make([]seatOut, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatOut{ID: s.ID, Label: s.Label, Floor: s.Floor, Status: s.Status})
	}
	payload, err := json.Marshal(echo.Map{"trip_id": tripID, "count": len(out), "seats": out})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encoding error"})
	}
	h.Cache.Set(ctx, tripID, payload)
	return c.JSONBlob(http.StatusOK, payload)
}

// Delete handles DELETE /v1/trips/:id.  Seats are released and detached
// rather than destroyed: tickets keep referencing them for history.
func (h *TripHandler) Delete(c echo.Context) error {
	tripID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	tx, err := h.Trips.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.SeatRepo.DetachByTripTx(ctx, tx, tripID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to detach seats"})
	}
	if err := h.Trips.DeleteTx(ctx, tx, tripID); err != nil {
		return respondError(c, err)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete trip"})
	}
	committed = true
	h.Cache.Invalidate(ctx, tripID)
	return c.NoContent(http.StatusNoContent)
}
