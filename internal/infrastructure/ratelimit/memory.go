// Package ratelimit provides sliding-window limiters for the public signing endpoints.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"esign.backend/internal/config"
)

// MemoryLimiter keeps a per-key log of admitted requests inside this process.
// Counts are not shared between instances; use RedisLimiter when the service
// runs with more than one replica.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(policy config.RatePolicy) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  policy.Limit,
		window: policy.Window,
		hits:   map[string][]time.Time{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock swaps the time source
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) TryAcquire(_ context.Context, key string) (bool, error) {
	return l.AllowAt(key, l.now()), nil
}

// AllowAt admits the request if fewer than limit requests for key were
// admitted in (now-window, now].
func (l *MemoryLimiter) AllowAt(key string, now time.Time) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	recent := prune(l.hits[key], now.Add(-l.window))
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

// sweep drops idle keys at most once per window
func (l *MemoryLimiter) sweep(now time.Time) {
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.window)
	for key, times := range l.hits {
		if recent := prune(times, cutoff); len(recent) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = recent
		}
	}
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

func (l *MemoryLimiter) trackedKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
