package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/busline/booking-engine/internal/model"
)

// SeatRepo provides data access to the seats table.  Seat status changes
// are implemented as conditional updates (`UPDATE ... WHERE status = ?`)
// so that two concurrent requests racing for the same seat resolve at the
// database: exactly one statement affects a row, the other observes zero
// rows and receives ErrSeatConflict.  All timestamps are stored in UTC.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so services can open transactions that
// span seat updates and order/ticket inserts.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, trip_id, label, row_label, column_number, floor, status, reserved_by, reserved_until, created_at, updated_at`

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var s model.Seat
	var reservedBy sql.NullInt64
	var reservedUntil sql.NullTime
	if err := row.Scan(
		&s.ID, &s.TripID, &s.Label, &s.RowLabel, &s.ColumnNumber, &s.Floor,
		&s.Status, &reservedBy, &reservedUntil, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if reservedBy.Valid {
		v := uint64(reservedBy.Int64)
		s.ReservedBy = &v
	}
	if reservedUntil.Valid {
		t := reservedUntil.Time
		s.ReservedUntil = &t
	}
	return &s, nil
}

// CreateBulk inserts the generated seats of a trip in one statement.  Only
// trip_id, label, row_label, column_number, floor and status are supplied;
// timestamps default in the database.  Passing an empty slice is a no-op.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (trip_id, label, row_label, column_number, floor, status) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, s.TripID, s.Label, s.RowLabel, s.ColumnNumber, s.Floor, s.Status)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a single seat.  Returns ErrSeatNotFound when absent.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	s, err := scanSeat(r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// GetByIDsTx loads the named seats inside a transaction, ordered by id.
// Callers use it to validate a reservation request (same trip, seats
// exist) before attempting any transition.
func (r *SeatRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := tx.QueryContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetByTrip returns all seats of a trip ordered by floor, row and column,
// suitable for rendering a seat map.
func (r *SeatRepo) GetByTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? ORDER BY floor, row_label, column_number`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// TransitionTx performs the compare-and-swap a reservation depends on: the
// seat moves from `from` to `to` only if its current status still equals
// `from`.  When the seat moved in the meantime the update matches nothing
// and ErrSeatConflict is returned.  reservedBy/reservedUntil are written
// as given (nil clears the column).
func (r *SeatRepo) TransitionTx(ctx context.Context, tx *sql.Tx, seatID uint64, from, to model.SeatStatus, reservedBy *uint64, reservedUntil *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET status = ?, reserved_by = ?, reserved_until = ? WHERE id = ? AND status = ?`,
		to, nullableID(reservedBy), nullableTime(reservedUntil), seatID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSeatConflict
	}
	return nil
}

// BulkTransitionTx transitions every listed seat from `from` to `to` in a
// single guarded statement and reports how many rows actually moved.
// Callers needing all-or-nothing semantics compare the count against
// len(ids) and roll back on mismatch.
func (r *SeatRepo) BulkTransitionTx(ctx context.Context, tx *sql.Tx, ids []uint64, from, to model.SeatStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE seats SET status = ? WHERE status = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{to, from}, idArgs(ids)...)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseTx forces the listed seats back to AVAILABLE and clears the
// owning order and hold expiry.  Used by the sweeper, refunds and
// settlement rollback; it does not check the prior status.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{model.SeatAvailable}, idArgs(ids)...)
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ReleaseOwnedTx frees every seat still RESERVED by the given order in a
// single guarded statement.  Seats the sweeper or a callback already
// moved are untouched, so concurrent actors cannot clobber each other.
func (r *SeatRepo) ReleaseOwnedTx(ctx context.Context, tx *sql.Tx, orderID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL
		 WHERE reserved_by = ? AND status = ?`,
		model.SeatAvailable, orderID, model.SeatReserved)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConfirmOwnedTx books every seat still RESERVED by the given order.  The
// owning order stays on the row (a BOOKED seat must have an owner) and
// the hold expiry is cleared since it only means anything while RESERVED.
func (r *SeatRepo) ConfirmOwnedTx(ctx context.Context, tx *sql.Tx, orderID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET status = ?, reserved_until = NULL
		 WHERE reserved_by = ? AND status = ?`,
		model.SeatBooked, orderID, model.SeatReserved)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseExpiredTx releases one seat only if it is still RESERVED with a
// hold that expired before `now`.  Zero rows affected means another
// process (a settlement callback, typically) got there first; the sweeper
// treats that as a no-op, not an error.
func (r *SeatRepo) ReleaseExpiredTx(ctx context.Context, tx *sql.Tx, seatID uint64, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET status = ?, reserved_by = NULL, reserved_until = NULL
		 WHERE id = ? AND status = ? AND reserved_until IS NOT NULL AND reserved_until < ?`,
		model.SeatAvailable, seatID, model.SeatReserved, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// FindExpiredReserved scans for seats whose hold lapsed before `now`,
// bounded by `limit` so a single sweep never turns into a long-running
// scan.  Results are ordered oldest hold first.
func (r *SeatRepo) FindExpiredReserved(ctx context.Context, now time.Time, limit int) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats
		 WHERE status = ? AND reserved_until IS NOT NULL AND reserved_until < ?
		 ORDER BY reserved_until LIMIT ?`,
		model.SeatReserved, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// DetachByTripTx releases every seat of a trip to AVAILABLE and clears the
// trip reference.  Trips are append-only once seats attach to orders, so
// deletion detaches rather than destroys.
func (r *SeatRepo) DetachByTripTx(ctx context.Context, tx *sql.Tx, tripID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE seats SET trip_id = 0, status = ?, reserved_by = NULL, reserved_until = NULL WHERE trip_id = ?`,
		model.SeatAvailable, tripID)
	return err
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func nullableID(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
