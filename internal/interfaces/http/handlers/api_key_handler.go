package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/domain/repositories"
	"esign.backend/internal/interfaces/http/middleware"
	"esign.backend/internal/interfaces/http/response"
	"esign.backend/internal/usecases"
	"esign.backend/pkg/utils"
)

const defaultApiKeyPageSize = 20

type ApiKeyHandler struct {
	apiKeyUsecase *usecases.ApiKeyUsecase
}

func NewApiKeyHandler(apiKeyUsecase *usecases.ApiKeyUsecase) *ApiKeyHandler {
	return &ApiKeyHandler{
		apiKeyUsecase: apiKeyUsecase,
	}
}

// ValidateApiKey reports the identity behind the presented key
// POST /api/v1/api-keys/validate
func (h *ApiKeyHandler) ValidateApiKey(c *gin.Context) {
	identity, exists := middleware.GetApiKeyIdentity(c)
	if !exists {
		response.Error(c, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyRequired, "API key is required"))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": true, "apiKey": identity})
}

// CreateApiKey creates a new API key; the raw key is only returned here
func (h *ApiKeyHandler) CreateApiKey(c *gin.Context) {
	var input entities.CreateApiKeyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	staff, exists := middleware.GetStaffIdentity(c)
	if !exists {
		response.Error(c, domainerrors.Unauthenticated("", "staff authentication required"))
		return
	}

	created, err := h.apiKeyUsecase.CreateApiKey(c.Request.Context(), staff.UserID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// ListApiKeys lists keys with optional type, entity, and active filters
func (h *ApiKeyHandler) ListApiKeys(c *gin.Context) {
	pagination := utils.ParsePagination(c.Query("page"), c.Query("limit"), defaultApiKeyPageSize)

	filter := repositories.ApiKeyFilter{
		Type:       entities.ApiKeyType(c.Query("type")),
		EntityKind: entities.EntityKind(c.Query("entityType")),
		EntityID:   c.Query("entityId"),
		ActiveOnly: c.Query("active") == "true",
	}
	keys, total, err := h.apiKeyUsecase.ListApiKeys(c.Request.Context(), filter, pagination)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"apiKeys":    keys,
		"pagination": utils.CalculateMeta(total, pagination.Page, pagination.Limit),
	})
}

func (h *ApiKeyHandler) GetApiKey(c *gin.Context) {
	id, ok := apiKeyID(c)
	if !ok {
		return
	}
	key, err := h.apiKeyUsecase.GetApiKey(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"apiKey": key})
}

func (h *ApiKeyHandler) UpdateApiKey(c *gin.Context) {
	id, ok := apiKeyID(c)
	if !ok {
		return
	}
	var input entities.UpdateApiKeyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	key, err := h.apiKeyUsecase.UpdateApiKey(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"apiKey": key})
}

// DeleteApiKey removes the key row; signatures keep the back-reference id
func (h *ApiKeyHandler) DeleteApiKey(c *gin.Context) {
	id, ok := apiKeyID(c)
	if !ok {
		return
	}
	if err := h.apiKeyUsecase.DeleteApiKey(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "API key deleted"})
}

// RegenerateApiKey swaps in a new raw key; the old one stops working
func (h *ApiKeyHandler) RegenerateApiKey(c *gin.Context) {
	id, ok := apiKeyID(c)
	if !ok {
		return
	}
	regenerated, err := h.apiKeyUsecase.RegenerateApiKey(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, regenerated)
}

func apiKeyID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.ParseUUID(c.Param("id"))
	if !ok {
		response.Error(c, domainerrors.BadRequest("invalid API key id"))
		return uuid.Nil, false
	}
	return id, true
}
