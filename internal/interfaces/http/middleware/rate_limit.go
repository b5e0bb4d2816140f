package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/domain/services"
	"esign.backend/internal/infrastructure/metrics"
	"esign.backend/internal/interfaces/http/response"
	"esign.backend/pkg/logger"
)

// RateLimitMiddleware budgets requests per client IP within one class.
// Backend errors let the request through.
func RateLimitMiddleware(class string, limiter services.RateLimiter, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Round(time.Second) / time.Second))
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, err := limiter.TryAcquire(c.Request.Context(), class+":"+c.ClientIP())
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable",
				zap.String("class", class),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimited.WithLabelValues(class).Inc()
			c.Header("Retry-After", retryAfter)
			response.AbortWithError(c, domainerrors.RateLimited("too many requests, try again later"))
			return
		}
		c.Next()
	}
}
