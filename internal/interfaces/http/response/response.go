package response

import (
	"github.com/gin-gonic/gin"

	domainerrors "esign.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	appErr := domainerrors.ToAppError(err)

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message, // Backward compatibility
	})
}

// AbortWithError writes the error body and stops the middleware chain
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
