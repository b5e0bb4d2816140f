package middleware

import (
	"github.com/gin-gonic/gin"

	"esign.backend/internal/domain/entities"
)

// ClientInfo is the request metadata stamped into consent and audit records
func ClientInfo(c *gin.Context) entities.ClientInfo {
	return entities.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
