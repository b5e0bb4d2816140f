// Package documents reads generated documents and stores signed artifacts.
package documents

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/infrastructure/models"
)

// GormResolver looks documents up in the generated_documents table
type GormResolver struct {
	db *gorm.DB
}

func NewGormResolver(db *gorm.DB) *GormResolver {
	return &GormResolver{db: db}
}

func (r *GormResolver) ResolveDocument(ctx context.Context, documentType entities.DocumentType, documentID string) (*entities.DocumentInfo, error) {
	var m models.GeneratedDocument
	err := r.db.WithContext(ctx).
		Where("id = ? AND document_type = ?", documentID, string(documentType)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}

	info := &entities.DocumentInfo{
		ID:   m.ID,
		Type: entities.DocumentType(m.DocumentType),
		URL:  m.URL,
	}
	if m.DisplayFields != "" {
		// display fields are informational; a malformed blob is ignored
		_ = json.Unmarshal([]byte(m.DisplayFields), &info.DisplayFields)
	}
	return info, nil
}
