package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/busline/booking-engine/internal/model"
	"github.com/busline/booking-engine/internal/repository"
)

// Sweeper is the background loop that reclaims expired seat holds.  It
// scans in bounded batches and treats every seat independently: an error
// on one hold is logged and skipped, the rest of the batch proceeds, and
// anything missed is retried next cycle.  Holds another actor settled
// between the scan and the release are recognized by the guarded update
// matching nothing and skipped silently.
type Sweeper struct {
	db       *sql.DB
	seats    *repository.SeatRepo
	tickets  *repository.TicketRepo
	orders   *repository.OrderRepo
	payments *repository.PaymentRepo
	cache    *SeatCache

	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewSweeper wires a Sweeper.  interval is the sweep period, batchSize
// bounds how many expired holds one cycle may touch.
func NewSweeper(db *sql.DB, seats *repository.SeatRepo, tickets *repository.TicketRepo, orders *repository.OrderRepo, payments *repository.PaymentRepo, cache *SeatCache, interval time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		db:        db,
		seats:     seats,
		tickets:   tickets,
		orders:    orders,
		payments:  payments,
		cache:     cache,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run executes sweep cycles on a fixed ticker until the context is
// cancelled.  Meant to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("sweeper: started (interval=%s batch=%d)", s.interval, s.batchSize)
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: cycle failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: released %d expired holds", n)
			}
		}
	}
}

// SweepOnce releases up to batchSize expired holds and returns how many
// seats it actually freed.  Exported so tests and an admin endpoint can
// trigger a cycle without the ticker.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	expired, err := s.seats.FindExpiredReserved(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, seat := range expired {
		if err := s.expireSeat(ctx, seat, now); err != nil {
			log.Printf("sweeper: seat %d: %v", seat.ID, err)
			continue
		}
		released++
		s.cache.Invalidate(ctx, seat.TripID)
	}
	return released, nil
}

// expireSeat releases one expired hold and cascades: ticket cancelled,
// and once the order has no active tickets left the order goes EXPIRED
// and its still-pending payment with it.  Every update re-checks status
// so a settlement that won the race turns this into a no-op.
func (s *Sweeper) expireSeat(ctx context.Context, seat model.Seat, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	freed, err := s.seats.ReleaseExpiredTx(ctx, tx, seat.ID, now)
	if err != nil {
		return err
	}
	if !freed {
		// Settled or already released since the scan; nothing to do.
		return tx.Commit()
	}

	if seat.ReservedBy != nil {
		orderID := *seat.ReservedBy
		if _, err := s.tickets.CancelBySeatTx(ctx, tx, orderID, seat.ID); err != nil {
			return err
		}
		active, err := s.tickets.CountActiveTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if active == 0 {
			if _, err := s.orders.UpdateStatusTx(ctx, tx, orderID, model.OrderPending, model.OrderExpired); err != nil {
				return err
			}
			if payment, err := s.payments.GetByOrder(ctx, orderID); err == nil {
				if _, err := s.payments.UpdateStatusTx(ctx, tx, payment.ID, model.PaymentPending, model.PaymentExpired); err != nil {
					return err
				}
			} else if !errors.Is(err, repository.ErrPaymentNotFound) {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
