package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/interfaces/http/response"
)

const (
	// ApiKeyHeader carries the raw API key
	ApiKeyHeader = "X-Api-Key"
	// ApiKeyAuthPrefix is the Authorization scheme accepted for API keys
	ApiKeyAuthPrefix = "ApiKey "
	// ApiKeyIdentityKey is the context key for the authenticated key
	ApiKeyIdentityKey = "apiKeyIdentity"
)

// ApiKeyAuthenticator resolves a raw key to its identity
type ApiKeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*entities.ApiKeyIdentity, error)
}

// ApiKeyAuthMiddleware requires a valid, active, unexpired API key
func ApiKeyAuthMiddleware(auth ApiKeyAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Authenticate(c.Request.Context(), rawApiKey(c))
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Set(ApiKeyIdentityKey, identity)
		c.Next()
	}
}

func rawApiKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(ApiKeyHeader)); key != "" {
		return key
	}
	if header := c.GetHeader(AuthorizationHeader); strings.HasPrefix(header, ApiKeyAuthPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, ApiKeyAuthPrefix))
	}
	return ""
}

// GetApiKeyIdentity returns the key attached by ApiKeyAuthMiddleware
func GetApiKeyIdentity(c *gin.Context) (*entities.ApiKeyIdentity, bool) {
	v, exists := c.Get(ApiKeyIdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*entities.ApiKeyIdentity)
	return identity, ok
}

// RequireApiKeyPermission passes when the key holds at least one of perms
func RequireApiKeyPermission(perms ...entities.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetApiKeyIdentity(c)
		if !exists {
			response.AbortWithError(c, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyRequired, "API key is required"))
			return
		}
		if !identity.Permissions.HasAny(perms...) {
			response.AbortWithError(c, domainerrors.Forbidden("API key lacks the required permission"))
			return
		}
		c.Next()
	}
}
