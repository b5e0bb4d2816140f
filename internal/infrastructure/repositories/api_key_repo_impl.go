package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	domainRepos "esign.backend/internal/domain/repositories"
	"esign.backend/internal/infrastructure/models"
	"esign.backend/pkg/utils"
)

type ApiKeyRepository struct {
	db *gorm.DB
}

func NewApiKeyRepository(db *gorm.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

func (r *ApiKeyRepository) Create(ctx context.Context, apiKey *entities.ApiKey) error {
	if apiKey.ID == uuid.Nil {
		apiKey.ID = utils.GenerateUUIDv7()
	}
	m := r.toModel(apiKey)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return translateError(err)
	}
	apiKey.CreatedAt = m.CreatedAt
	apiKey.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *ApiKeyRepository) FindByKeyHash(ctx context.Context, keyHash string) (*entities.ApiKey, error) {
	var m models.ApiKey
	if err := GetDB(ctx, r.db).Where("key_hash = ?", keyHash).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m), nil
}

func (r *ApiKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error) {
	var m models.ApiKey
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m), nil
}

func (r *ApiKeyRepository) List(ctx context.Context, filter domainRepos.ApiKeyFilter, pagination utils.PaginationParams) ([]*entities.ApiKey, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.ApiKey{})
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.EntityKind != "" {
		query = query.Where("entity_kind = ?", string(filter.EntityKind))
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var ms []models.ApiKey
	if err := query.Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.ApiKey, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, total, nil
}

func (r *ApiKeyRepository) Update(ctx context.Context, apiKey *entities.ApiKey) error {
	updates := map[string]interface{}{
		"name":                   apiKey.Name,
		"perm_sign_agreements":   apiKey.Permissions.SignAgreements,
		"perm_view_documents":    apiKey.Permissions.ViewDocuments,
		"perm_create_signatures": apiKey.Permissions.CreateSignatures,
		"is_active":              apiKey.IsActive,
		"expires_at":             apiKey.ExpiresAt.Ptr(),
		"updated_at":             time.Now(),
	}

	result := GetDB(ctx, r.db).
		Model(&models.ApiKey{}).
		Where("id = ?", apiKey.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *ApiKeyRepository) ReplaceKeyHash(ctx context.Context, id uuid.UUID, keyHash, keyPrefix string) error {
	result := GetDB(ctx, r.db).
		Model(&models.ApiKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"key_hash":   keyHash,
			"key_prefix": keyPrefix,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *ApiKeyRepository) IncrementUsage(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := GetDB(ctx, r.db).
		Model(&models.ApiKey{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", 1),
			"last_used":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *ApiKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Delete(&models.ApiKey{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *ApiKeyRepository) toEntity(m *models.ApiKey) *entities.ApiKey {
	return &entities.ApiKey{
		ID:        m.ID,
		Name:      m.Name,
		KeyPrefix: m.KeyPrefix,
		KeyHash:   m.KeyHash,
		Type:      entities.ApiKeyType(m.Type),
		Entity: entities.EntityRef{
			Kind: entities.EntityKind(m.EntityKind),
			ID:   m.EntityID,
		},
		Permissions: entities.Permissions{
			SignAgreements:   m.CanSignAgreements,
			ViewDocuments:    m.CanViewDocuments,
			CreateSignatures: m.CanCreateSignatures,
		},
		IsActive:   m.IsActive,
		ExpiresAt:  null.TimeFromPtr(m.ExpiresAt),
		UsageCount: m.UsageCount,
		LastUsed:   null.TimeFromPtr(m.LastUsed),
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *ApiKeyRepository) toModel(e *entities.ApiKey) *models.ApiKey {
	return &models.ApiKey{
		ID:                  e.ID,
		Name:                e.Name,
		KeyPrefix:           e.KeyPrefix,
		KeyHash:             e.KeyHash,
		Type:                string(e.Type),
		EntityKind:          string(e.Entity.Kind),
		EntityID:            e.Entity.ID,
		CanSignAgreements:   e.Permissions.SignAgreements,
		CanViewDocuments:    e.Permissions.ViewDocuments,
		CanCreateSignatures: e.Permissions.CreateSignatures,
		IsActive:            e.IsActive,
		ExpiresAt:           e.ExpiresAt.Ptr(),
		UsageCount:          e.UsageCount,
		LastUsed:            e.LastUsed.Ptr(),
		CreatedBy:           e.CreatedBy,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}
