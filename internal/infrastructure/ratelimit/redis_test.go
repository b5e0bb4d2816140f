package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign.backend/internal/config"
)

func startMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	srv, client := startMiniRedis(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRedisLimiter(client, config.RatePolicy{Limit: 3, Window: time.Minute}).WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.TryAcquire(ctx, "consent:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.TryAcquire(ctx, "consent:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, srv.Exists(redisKeyPrefix+"consent:1.2.3.4"))

	clock.Advance(time.Minute + time.Millisecond)
	ok, err = limiter.TryAcquire(ctx, "consent:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	_, client := startMiniRedis(t)
	clock := &fakeClock{now: time.Now().UTC()}
	policy := config.RatePolicy{Limit: 2, Window: time.Minute}
	a := NewRedisLimiter(client, policy).WithClock(clock.Now)
	b := NewRedisLimiter(client, policy).WithClock(clock.Now)
	ctx := context.Background()

	okA, _ := a.TryAcquire(ctx, "sign:9.9.9.9")
	okB, _ := b.TryAcquire(ctx, "sign:9.9.9.9")
	okA2, _ := a.TryAcquire(ctx, "sign:9.9.9.9")
	assert.True(t, okA)
	assert.True(t, okB)
	assert.False(t, okA2, "the second instance consumed the shared budget")
}

func TestRedisLimiter_BackendError(t *testing.T) {
	srv, client := startMiniRedis(t)
	limiter := NewRedisLimiter(client, config.RatePolicy{Limit: 1, Window: time.Minute})
	srv.Close()

	_, err := limiter.TryAcquire(context.Background(), "k")
	assert.Error(t, err)
}

func TestNew_Backends(t *testing.T) {
	cfg := config.RateLimitConfig{
		Sign:    config.RatePolicy{Limit: 5, Window: 5 * time.Minute},
		Status:  config.RatePolicy{Limit: 30, Window: time.Minute},
		Consent: config.RatePolicy{Limit: 10, Window: 5 * time.Minute},
	}

	limiters, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLimiter{}, limiters.Sign)

	cfg.Backend = "redis"
	_, err = New(cfg, nil)
	assert.Error(t, err)

	_, client := startMiniRedis(t)
	limiters, err = New(cfg, client)
	require.NoError(t, err)
	assert.IsType(t, &RedisLimiter{}, limiters.Consent)

	cfg.Backend = "memcached"
	_, err = New(cfg, client)
	assert.Error(t, err)
}
