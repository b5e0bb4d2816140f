package middleware

import (
	"github.com/gin-gonic/gin"

	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/interfaces/http/response"
	"esign.backend/pkg/jwt"
)

// InternalAuthMiddleware admits either a staff bearer token or an API key of
// an internal or system type. Customer and dealer keys are refused.
func InternalAuthMiddleware(jwtService *jwt.JWTService, auth ApiKeyAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			staff, err := staffFromToken(jwtService, tokenString)
			if err != nil {
				response.AbortWithError(c, err)
				return
			}
			c.Set(StaffIdentityKey, staff)
			c.Next()
			return
		}

		if raw := rawApiKey(c); raw != "" {
			identity, err := auth.Authenticate(c.Request.Context(), raw)
			if err != nil {
				response.AbortWithError(c, err)
				return
			}
			if !identity.Type.Trusted() {
				response.AbortWithError(c, domainerrors.Forbidden("internal access requires an internal or system API key"))
				return
			}
			c.Set(ApiKeyIdentityKey, identity)
			c.Next()
			return
		}

		response.AbortWithError(c, domainerrors.Unauthenticated("", "authentication required (staff token or internal API key)"))
	}
}

// Actor names the authenticated caller for audit records
func Actor(c *gin.Context) string {
	if staff, ok := GetStaffIdentity(c); ok {
		return "staff:" + staff.Email
	}
	if identity, ok := GetApiKeyIdentity(c); ok {
		return "api_key:" + identity.KeyID.String()
	}
	return ""
}
