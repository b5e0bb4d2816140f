package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/domain/repositories"
	"esign.backend/internal/infrastructure/metrics"
	"esign.backend/pkg/crypto"
	"esign.backend/pkg/logger"
	"esign.backend/pkg/utils"
)

var generateApiKeyToken = crypto.GenerateRandomToken

type ApiKeyUsecase struct {
	apiKeyRepo repositories.ApiKeyRepository
	now        func() time.Time
}

func NewApiKeyUsecase(apiKeyRepo repositories.ApiKeyRepository) *ApiKeyUsecase {
	return &ApiKeyUsecase{
		apiKeyRepo: apiKeyRepo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock swaps the time source
func (u *ApiKeyUsecase) WithClock(now func() time.Time) *ApiKeyUsecase {
	u.now = now
	return u
}

// Authenticate resolves a raw key to the identity it acts for
func (u *ApiKeyUsecase) Authenticate(ctx context.Context, rawKey string) (*entities.ApiKeyIdentity, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		metrics.ApiKeyAuth.WithLabelValues("missing").Inc()
		return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyRequired, "API key is required")
	}

	key, err := u.apiKeyRepo.FindByKeyHash(ctx, crypto.SHA256Hex([]byte(rawKey)))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			metrics.ApiKeyAuth.WithLabelValues("invalid").Inc()
			return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyInvalid, "invalid API key")
		}
		metrics.ApiKeyAuth.WithLabelValues("error").Inc()
		logger.Error(ctx, "API key lookup failed", zap.Error(err))
		return nil, domainerrors.InternalError(err)
	}

	now := u.now()
	if !key.IsActive {
		metrics.ApiKeyAuth.WithLabelValues("invalid").Inc()
		return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyInvalid, "invalid API key")
	}
	if key.IsExpired(now) {
		metrics.ApiKeyAuth.WithLabelValues("expired").Inc()
		return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyExpired, "API key has expired")
	}

	if err := u.apiKeyRepo.IncrementUsage(ctx, key.ID, now); err != nil {
		logger.Warn(ctx, "Failed to record API key usage",
			zap.String("api_key_id", key.ID.String()),
			zap.Error(err),
		)
	}

	metrics.ApiKeyAuth.WithLabelValues(metrics.ResultSuccess).Inc()
	return key.Identity(), nil
}

func (u *ApiKeyUsecase) CreateApiKey(ctx context.Context, createdBy uuid.UUID, input *entities.CreateApiKeyInput) (*entities.CreateApiKeyResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.BadRequest("name is required")
	}
	if !input.Type.Valid() {
		return nil, domainerrors.BadRequest("unknown api key type")
	}
	if err := input.Entity.Validate(); err != nil {
		return nil, domainerrors.BadRequest(err.Error())
	}
	now := u.now()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, domainerrors.BadRequest("expiresAt must be in the future")
	}

	rawKey, err := newRawApiKey()
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	key := &entities.ApiKey{
		Name:        name,
		KeyPrefix:   rawKey[:apiKeyDisplayLen],
		KeyHash:     crypto.SHA256Hex([]byte(rawKey)),
		Type:        input.Type,
		Entity:      input.Entity,
		Permissions: input.Permissions,
		IsActive:    true,
		ExpiresAt:   null.TimeFromPtr(input.ExpiresAt),
		CreatedBy:   uuid.NullUUID{UUID: createdBy, Valid: createdBy != uuid.Nil},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.apiKeyRepo.Create(ctx, key); err != nil {
		logger.Error(ctx, "Failed to create API key", zap.Error(err))
		return nil, domainerrors.InternalError(err)
	}

	return &entities.CreateApiKeyResponse{ApiKey: key, RawKey: rawKey}, nil
}

func (u *ApiKeyUsecase) ListApiKeys(ctx context.Context, filter repositories.ApiKeyFilter, pagination utils.PaginationParams) ([]*entities.ApiKey, int64, error) {
	keys, total, err := u.apiKeyRepo.List(ctx, filter, pagination)
	if err != nil {
		logger.Error(ctx, "Failed to list API keys", zap.Error(err))
		return nil, 0, domainerrors.InternalError(err)
	}
	return keys, total, nil
}

func (u *ApiKeyUsecase) GetApiKey(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error) {
	key, err := u.apiKeyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apiKeyLookupError(ctx, err)
	}
	return key, nil
}

func (u *ApiKeyUsecase) UpdateApiKey(ctx context.Context, id uuid.UUID, input *entities.UpdateApiKeyInput) (*entities.ApiKey, error) {
	key, err := u.GetApiKey(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domainerrors.BadRequest("name cannot be empty")
		}
		key.Name = name
	}
	if input.Permissions != nil {
		key.Permissions = *input.Permissions
	}
	if input.IsActive != nil {
		key.IsActive = *input.IsActive
	}
	if input.ExpiresAt != nil {
		key.ExpiresAt = null.TimeFrom(*input.ExpiresAt)
	}
	key.UpdatedAt = u.now()

	if err := u.apiKeyRepo.Update(ctx, key); err != nil {
		return nil, apiKeyLookupError(ctx, err)
	}
	return key, nil
}

// RevokeApiKey deactivates a key; the row is kept for the audit trail
func (u *ApiKeyUsecase) RevokeApiKey(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := u.UpdateApiKey(ctx, id, &entities.UpdateApiKeyInput{IsActive: &inactive})
	return err
}

func (u *ApiKeyUsecase) DeleteApiKey(ctx context.Context, id uuid.UUID) error {
	if err := u.apiKeyRepo.Delete(ctx, id); err != nil {
		return apiKeyLookupError(ctx, err)
	}
	return nil
}

// RegenerateApiKey issues a new raw key for an existing record. The previous
// raw key stops authenticating immediately.
func (u *ApiKeyUsecase) RegenerateApiKey(ctx context.Context, id uuid.UUID) (*entities.CreateApiKeyResponse, error) {
	key, err := u.GetApiKey(ctx, id)
	if err != nil {
		return nil, err
	}

	rawKey, err := newRawApiKey()
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	key.KeyHash = crypto.SHA256Hex([]byte(rawKey))
	key.KeyPrefix = rawKey[:apiKeyDisplayLen]

	if err := u.apiKeyRepo.ReplaceKeyHash(ctx, id, key.KeyHash, key.KeyPrefix); err != nil {
		return nil, apiKeyLookupError(ctx, err)
	}
	return &entities.CreateApiKeyResponse{ApiKey: key, RawKey: rawKey}, nil
}

func newRawApiKey() (string, error) {
	token, err := generateApiKeyToken(apiKeyRandomBytes)
	if err != nil {
		return "", err
	}
	return ApiKeyPrefix + token, nil
}

func apiKeyLookupError(ctx context.Context, err error) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.NotFound("api key not found")
	}
	logger.Error(ctx, "API key operation failed", zap.Error(err))
	return domainerrors.InternalError(err)
}
