package models

import (
	"time"

	"github.com/google/uuid"
)

type ApiKey struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                string    `gorm:"type:varchar(100);not null"`
	KeyPrefix           string    `gorm:"type:varchar(20);not null"`
	KeyHash             string    `gorm:"type:varchar(64);uniqueIndex;not null"` // SHA256 of key
	Type                string    `gorm:"type:varchar(20);not null;index"`
	EntityKind          string    `gorm:"type:varchar(20);not null"`
	EntityID            string    `gorm:"type:varchar(128);not null;index"`
	CanSignAgreements   bool      `gorm:"column:perm_sign_agreements;not null"`
	CanViewDocuments    bool      `gorm:"column:perm_view_documents;not null"`
	CanCreateSignatures bool      `gorm:"column:perm_create_signatures;not null"`
	IsActive            bool      `gorm:"not null"`
	ExpiresAt           *time.Time
	UsageCount          int64 `gorm:"not null"`
	LastUsed            *time.Time
	CreatedBy           uuid.NullUUID `gorm:"type:uuid"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (ApiKey) TableName() string {
	return "api_keys"
}
