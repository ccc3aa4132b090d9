package repository

import (
	"context"
	"database/sql"

	"github.com/busline/booking-engine/internal/model"
)

// TripRepo provides access to the trips table.  The engine only needs the
// slice of trip data booking depends on: the fixed advertised price and
// existence checks; full route/vehicle CRUD lives elsewhere.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a new TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle for transaction composition.
func (r *TripRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a trip and populates its generated ID.  The price is
// fixed here, at creation, as route price + vehicle type price.
func (r *TripRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Trip) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO trips (route_name, price_cents, departure_at) VALUES (?, ?, ?)`,
		t.RouteName, t.PriceCents, t.DepartureAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a trip.  Returns ErrTripNotFound when absent.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	var t model.Trip
	err := r.db.QueryRowContext(ctx,
		`SELECT id, route_name, price_cents, departure_at, created_at, updated_at FROM trips WHERE id = ?`, id).
		Scan(&t.ID, &t.RouteName, &t.PriceCents, &t.DepartureAt, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTx removes a trip row.  Callers must first detach the trip's
// seats (SeatRepo.DetachByTripTx) within the same transaction.
func (r *TripRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTripNotFound
	}
	return nil
}
