package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DigitalSignature flattens the ledger entry into columns so conditional
// updates can guard on individual consent flags and status.
type DigitalSignature struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SignatureID     string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	DocumentID      string         `gorm:"type:varchar(128);not null;index:idx_digital_signatures_document"`
	DocumentType    string         `gorm:"type:varchar(50);not null;index:idx_digital_signatures_document"`
	DocumentURL     string         `gorm:"type:text"`
	SignerType      string         `gorm:"type:varchar(20);not null"`
	SignerID        sql.NullString `gorm:"type:varchar(128)"`
	SignerModel     string         `gorm:"type:varchar(20)"`
	SignerName      string         `gorm:"type:varchar(255)"`
	SignerEmail     sql.NullString `gorm:"type:varchar(255)"`
	SignatureMethod string         `gorm:"type:varchar(30);not null"`

	IntentToSign                bool `gorm:"not null"`
	IntentAt                    *time.Time
	IntentIP                    string `gorm:"type:varchar(64)"`
	IntentUserAgent             string `gorm:"type:text"`
	ConsentToElectronicBusiness bool   `gorm:"not null"`
	ConsentAt                   *time.Time
	ConsentIP                   string `gorm:"type:varchar(64)"`
	ConsentUserAgent            string `gorm:"type:text"`

	VerificationMethod string `gorm:"type:varchar(30)"`
	IdentityVerified   bool   `gorm:"not null"`
	VerifiedAt         *time.Time

	SignedAt            *time.Time
	Coordinates         string `gorm:"type:text"` // JSON
	SignatureImage      string `gorm:"type:text"`
	TypedSignature      string `gorm:"type:varchar(255)"`
	DocumentHash        string `gorm:"type:varchar(64)"`
	Flattened           bool   `gorm:"not null"`
	WatermarkText       string `gorm:"type:varchar(255)"`
	IntegritySignedAt   *time.Time
	OriginalDocumentURL string `gorm:"type:text"`
	SignedDocumentURL   string `gorm:"type:text"`

	AuditIP        string `gorm:"type:varchar(64)"`
	AuditUserAgent string `gorm:"type:text"`
	AuditAt        *time.Time

	SignatureHash string        `gorm:"type:varchar(64)"`
	Status        string        `gorm:"type:varchar(20);not null;index"`
	ApiKeyUsed    uuid.NullUUID `gorm:"type:uuid;index"`
	DisplayFields string        `gorm:"type:text"` // JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func (DigitalSignature) TableName() string {
	return "digital_signatures"
}

// SignatureAuditEvent is append-only
type SignatureAuditEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	SignatureID uuid.UUID `gorm:"type:uuid;not null;index"`
	Action      string    `gorm:"type:varchar(50);not null"`
	IPAddress   string    `gorm:"type:varchar(64)"`
	UserAgent   string    `gorm:"type:text"`
	Details     string    `gorm:"type:text"` // JSON
	OccurredAt  time.Time `gorm:"not null;index"`
}

func (SignatureAuditEvent) TableName() string {
	return "signature_audit_events"
}
