package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
)

func TestApiKeyAuthMiddleware(t *testing.T) {
	auth := newStubAuthenticator()
	r := newTestRouter()
	r.Use(ApiKeyAuthMiddleware(auth))
	r.GET("/who", func(c *gin.Context) {
		identity, ok := GetApiKeyIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, identity.Name)
	})

	t.Run("missing key", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/who", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, domainerrors.CodeAPIKeyRequired, errorCode(t, w))
	})

	t.Run("unknown key", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/who", map[string]string{ApiKeyHeader: "esk_nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, domainerrors.CodeAPIKeyInvalid, errorCode(t, w))
	})

	t.Run("header", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/who", map[string]string{ApiKeyHeader: " esk_dealer "})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Acme Motors", w.Body.String())
	})

	t.Run("authorization scheme", func(t *testing.T) {
		w := perform(r, http.MethodGet, "/who", map[string]string{AuthorizationHeader: "ApiKey esk_viewer"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Viewer", w.Body.String())
	})
}

func TestRequireApiKeyPermission(t *testing.T) {
	r := newTestRouter()
	r.POST("/signatures",
		ApiKeyAuthMiddleware(newStubAuthenticator()),
		RequireApiKeyPermission(entities.PermissionCreateSignatures, entities.PermissionSignAgreements),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	r.POST("/bare", RequireApiKeyPermission(entities.PermissionViewDocuments), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_dealer"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(r, http.MethodPost, "/signatures", map[string]string{ApiKeyHeader: "esk_viewer"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domainerrors.CodeForbidden, errorCode(t, w))

	w = perform(r, http.MethodPost, "/bare", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
