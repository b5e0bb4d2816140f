package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"esign.backend/pkg/logger"
)

// LoggerMiddleware logs HTTP requests using the structured logger.
// Matched routes are logged by template so signature ids stay out of the path field.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
