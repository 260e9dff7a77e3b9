package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThrottle(t *testing.T) (*miniredis.Miniredis, CodeThrottle) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCodeThrottle(client, "test:otp")
}

func TestReserve(t *testing.T) {
	mr, throttle := newThrottle(t)
	ctx := context.Background()
	phone := "+919876543210"

	ok, err := throttle.Reserve(ctx, phone, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = throttle.Reserve(ctx, phone, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation inside the window")

	ok, err = throttle.Reserve(ctx, "+919876543211", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "other numbers are independent")

	mr.FastForward(time.Minute + time.Second)
	ok, err = throttle.Reserve(ctx, phone, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window elapsed")

	require.NoError(t, throttle.Release(ctx, phone))
	ok, err = throttle.Reserve(ctx, phone, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released slot")
}

func TestRecordAttempt(t *testing.T) {
	mr, throttle := newThrottle(t)
	ctx := context.Background()
	phone := "+919876543210"

	for i := int64(1); i <= 3; i++ {
		n, err := throttle.RecordAttempt(ctx, phone, 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.Equal(t, 10*time.Minute, mr.TTL("test:otp:attempts:"+phone))

	require.NoError(t, throttle.ResetAttempts(ctx, phone))
	n, err := throttle.RecordAttempt(ctx, phone, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mr.FastForward(11 * time.Minute)
	assert.False(t, mr.Exists("test:otp:attempts:"+phone))
}

func TestRecordAttempt_WindowIsFixedFromFirstAttempt(t *testing.T) {
	mr, throttle := newThrottle(t)
	ctx := context.Background()
	phone := "+919876543210"
	key := "test:otp:attempts:" + phone

	_, err := throttle.RecordAttempt(ctx, phone, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	mr.FastForward(4 * time.Minute)
	n, err := throttle.RecordAttempt(ctx, phone, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 6*time.Minute, mr.TTL(key), "later attempts must not extend the window")

	mr.FastForward(6*time.Minute + time.Second)
	n, err = throttle.RecordAttempt(ctx, phone, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
