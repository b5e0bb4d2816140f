package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"esign.backend/internal/domain/entities"
	"esign.backend/pkg/utils"
)

// ApiKeyFilter narrows admin listings
type ApiKeyFilter struct {
	Type       entities.ApiKeyType
	EntityKind entities.EntityKind
	EntityID   string
	ActiveOnly bool
}

type ApiKeyRepository interface {
	Create(ctx context.Context, apiKey *entities.ApiKey) error
	FindByKeyHash(ctx context.Context, keyHash string) (*entities.ApiKey, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error)
	List(ctx context.Context, filter ApiKeyFilter, pagination utils.PaginationParams) ([]*entities.ApiKey, int64, error)
	Update(ctx context.Context, apiKey *entities.ApiKey) error
	// ReplaceKeyHash swaps the stored credential so the old raw key stops working
	ReplaceKeyHash(ctx context.Context, id uuid.UUID, keyHash, keyPrefix string) error
	// IncrementUsage atomically bumps usage_count and refreshes last_used
	IncrementUsage(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
