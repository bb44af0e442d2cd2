package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThrottle(t *testing.T) (*ResetThrottle, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewResetThrottle(client), s
}

func TestResetThrottle_FirstRequest(t *testing.T) {
	throttle, s := newThrottle(t)

	ok, err := throttle.Acquire(context.Background(), "owner@shop.test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Exists("reset_throttle:owner@shop.test"))
	assert.Equal(t, time.Minute, s.TTL("reset_throttle:owner@shop.test"))
}

func TestResetThrottle_WithinCooldown(t *testing.T) {
	throttle, _ := newThrottle(t)
	ctx := context.Background()

	ok, err := throttle.Acquire(ctx, "owner@shop.test", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = throttle.Acquire(ctx, "OWNER@Shop.Test", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "same address in different case shares the slot")
}

func TestResetThrottle_AfterCooldown(t *testing.T) {
	throttle, s := newThrottle(t)
	ctx := context.Background()

	_, err := throttle.Acquire(ctx, "owner@shop.test", time.Minute)
	require.NoError(t, err)

	s.FastForward(61 * time.Second)

	ok, err := throttle.Acquire(ctx, "owner@shop.test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetThrottle_IndependentAddresses(t *testing.T) {
	throttle, _ := newThrottle(t)
	ctx := context.Background()

	ok1, err := throttle.Acquire(ctx, "a@shop.test", time.Minute)
	require.NoError(t, err)
	ok2, err := throttle.Acquire(ctx, "b@shop.test", time.Minute)
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestResetThrottle_DisabledCooldown(t *testing.T) {
	throttle, s := newThrottle(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := throttle.Acquire(ctx, "owner@shop.test", 0)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.False(t, s.Exists("reset_throttle:owner@shop.test"))
}

func TestResetThrottle_RedisDown(t *testing.T) {
	throttle, s := newThrottle(t)
	s.Close()

	ok, err := throttle.Acquire(context.Background(), "owner@shop.test", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}
