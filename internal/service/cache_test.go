package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/service"
)

func TestSeatCache_SetGetInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := service.NewSeatCache(db, 30*time.Second)
	ctx := context.Background()
	payload := []byte(`{"trip_id":7,"count":0,"seats":[]}`)

	mock.ExpectSet("seatmap:7", payload, 30*time.Second).SetVal("OK")
	cache.Set(ctx, 7, payload)

	mock.ExpectGet("seatmap:7").SetVal(string(payload))
	got, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	mock.ExpectDel("seatmap:7").SetVal(1)
	cache.Invalidate(ctx, 7)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := service.NewSeatCache(db, 30*time.Second)

	mock.ExpectGet("seatmap:7").RedisNil()
	_, ok := cache.Get(context.Background(), 7)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatCache_NilClientDegradesGracefully(t *testing.T) {
	cache := service.NewSeatCache(nil, 30*time.Second)
	ctx := context.Background()

	cache.Set(ctx, 7, []byte("x"))
	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)
	cache.Invalidate(ctx, 7)

	// Without Redis the callback lock is always granted; the guarded
	// database updates carry the dedup on their own.
	assert.True(t, cache.AcquireCallbackLock(ctx, "ORD-abc", time.Minute))
	cache.ReleaseCallbackLock(ctx, "ORD-abc")
}

func TestSeatCache_CallbackLockIsExclusive(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := service.NewSeatCache(db, 30*time.Second)
	ctx := context.Background()

	mock.ExpectSetNX("callback:ORD-abc", 1, time.Minute).SetVal(true)
	assert.True(t, cache.AcquireCallbackLock(ctx, "ORD-abc", time.Minute))

	mock.ExpectSetNX("callback:ORD-abc", 1, time.Minute).SetVal(false)
	assert.False(t, cache.AcquireCallbackLock(ctx, "ORD-abc", time.Minute))

	mock.ExpectDel("callback:ORD-abc").SetVal(1)
	cache.ReleaseCallbackLock(ctx, "ORD-abc")

	require.NoError(t, mock.ExpectationsWereMet())
}
