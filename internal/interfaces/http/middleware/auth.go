package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/interfaces/http/response"
	"esign.backend/pkg/jwt"
	"esign.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for staff bearer tokens
	BearerPrefix = "Bearer "
	// StaffIdentityKey is the context key for the authenticated staff member
	StaffIdentityKey = "staffIdentity"
)

// StaffAuthMiddleware requires a valid staff bearer token
func StaffAuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.AbortWithError(c, domainerrors.Unauthenticated("", "staff bearer token is required"))
			return
		}

		staff, err := staffFromToken(jwtService, tokenString)
		if err != nil {
			logger.Warn(c.Request.Context(), "Staff token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.AbortWithError(c, err)
			return
		}

		c.Set(StaffIdentityKey, staff)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func staffFromToken(jwtService *jwt.JWTService, tokenString string) (*entities.StaffIdentity, error) {
	claims, err := jwtService.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, domainerrors.Unauthenticated("", "token has expired")
		}
		return nil, domainerrors.Unauthenticated("", "invalid token")
	}
	return &entities.StaffIdentity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
	}, nil
}

// GetStaffIdentity returns the staff member attached by StaffAuthMiddleware
func GetStaffIdentity(c *gin.Context) (*entities.StaffIdentity, bool) {
	v, exists := c.Get(StaffIdentityKey)
	if !exists {
		return nil, false
	}
	staff, ok := v.(*entities.StaffIdentity)
	return staff, ok
}

// RequireRole creates a middleware that requires one of the given staff roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, exists := GetStaffIdentity(c)
		if !exists {
			response.AbortWithError(c, domainerrors.Unauthenticated("", "staff authentication required"))
			return
		}

		for _, role := range roles {
			if strings.EqualFold(staff.Role, role) {
				c.Next()
				return
			}
		}

		response.AbortWithError(c, domainerrors.Forbidden("insufficient permissions"))
	}
}

// RequireAdmin creates a middleware that requires the admin role
func RequireAdmin(adminRole string) gin.HandlerFunc {
	return RequireRole(adminRole)
}
