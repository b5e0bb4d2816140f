package ratelimit

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"esign.backend/internal/config"
	"esign.backend/internal/domain/services"
)

// Request classes with independent budgets
const (
	ClassSign    = "sign"
	ClassStatus  = "status"
	ClassConsent = "consent"
)

// Limiters holds one limiter per request class
type Limiters struct {
	Sign    services.RateLimiter
	Status  services.RateLimiter
	Consent services.RateLimiter
}

// New builds the per-class limiters for the configured backend
func New(cfg config.RateLimitConfig, client redis.Scripter) (*Limiters, error) {
	build := func(policy config.RatePolicy) (services.RateLimiter, error) {
		switch cfg.Backend {
		case "", "memory":
			return NewMemoryLimiter(policy), nil
		case "redis":
			if client == nil {
				return nil, fmt.Errorf("redis rate limit backend requires a redis client")
			}
			return NewRedisLimiter(client, policy), nil
		}
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}

	sign, err := build(cfg.Sign)
	if err != nil {
		return nil, err
	}
	status, err := build(cfg.Status)
	if err != nil {
		return nil, err
	}
	consent, err := build(cfg.Consent)
	if err != nil {
		return nil, err
	}
	return &Limiters{Sign: sign, Status: status, Consent: consent}, nil
}
