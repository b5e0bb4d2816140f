package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"esign.backend/internal/config"
)

const redisKeyPrefix = "esign:ratelimit:"

// slidingLog trims the sorted set to the window, then admits and records the
// request only while the count is below the limit. Runs atomically in redis.
var slidingLog = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisLimiter shares the sliding log across every instance using one redis.
type RedisLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, policy config.RatePolicy) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  policy.Limit,
		window: policy.Window,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock swaps the time source
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

func (l *RedisLimiter) TryAcquire(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	nowMs := l.now().UnixMilli()
	res, err := slidingLog.Run(ctx, l.client,
		[]string{redisKeyPrefix + key},
		strconv.FormatInt(nowMs, 10),
		strconv.FormatInt(l.window.Milliseconds(), 10),
		strconv.Itoa(l.limit),
		strconv.FormatInt(nowMs, 10)+"-"+uuid.NewString(),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
