package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeatCache caches rendered seat maps per trip and provides the SETNX
// guard in front of callback processing.  A nil Redis client disables
// both concerns gracefully: the engine stays correct without Redis, just
// slower, because every state transition is already guarded at the
// database.
type SeatCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSeatCache returns a SeatCache.  rdb may be nil.
func NewSeatCache(rdb *redis.Client, ttl time.Duration) *SeatCache {
	return &SeatCache{rdb: rdb, ttl: ttl}
}

func seatMapKey(tripID uint64) string { return fmt.Sprintf("seatmap:%d", tripID) }

// Get returns the cached seat map payload for a trip, if present.
func (c *SeatCache) Get(ctx context.Context, tripID uint64) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, seatMapKey(tripID)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Set stores a rendered seat map with the configured TTL.
func (c *SeatCache) Set(ctx context.Context, tripID uint64, payload []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, seatMapKey(tripID), payload, c.ttl).Err()
}

// Invalidate drops the cached seat map after any seat status change.
func (c *SeatCache) Invalidate(ctx context.Context, tripID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, seatMapKey(tripID)).Err()
}

// AcquireCallbackLock takes a short-lived SETNX lock keyed by the
// merchant reference so duplicate webhook deliveries arriving in the same
// instant do not both hit the database.  When Redis is unavailable the
// lock is always granted; the guarded status updates make the second
// delivery a no-op anyway.
func (c *SeatCache) AcquireCallbackLock(ctx context.Context, merchantRef string, ttl time.Duration) bool {
	if c == nil || c.rdb == nil {
		return true
	}
	ok, err := c.rdb.SetNX(ctx, "callback:"+merchantRef, 1, ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// ReleaseCallbackLock frees the lock early so a legitimate retry after a
// processing failure is not forced to wait out the TTL.
func (c *SeatCache) ReleaseCallbackLock(ctx context.Context, merchantRef string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, "callback:"+merchantRef).Err()
}
