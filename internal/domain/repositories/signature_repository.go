package repositories

import (
	"context"

	"github.com/google/uuid"

	"esign.backend/internal/domain/entities"
)

// ConsentField selects one of the two consent flags
type ConsentField string

const (
	ConsentFieldIntent             ConsentField = "intent_to_sign"
	ConsentFieldElectronicBusiness ConsentField = "consent_to_electronic_business"
)

// SignatureRepository persists ledger entries. Mutating methods are atomic
// conditional updates and report whether the guarded write applied.
type SignatureRepository interface {
	Create(ctx context.Context, sig *entities.DigitalSignature) error
	GetBySignatureID(ctx context.Context, signatureID string) (*entities.DigitalSignature, error)
	ListByDocument(ctx context.Context, documentID string, documentType entities.DocumentType) ([]*entities.DigitalSignature, error)

	// GrantConsent sets the flag only while it is still false, then promotes a
	// pending entry to consent_given once both flags are set.
	GrantConsent(ctx context.Context, id uuid.UUID, field ConsentField, record entities.ConsentRecord) (bool, error)
	// CompleteSignature writes the mark, consent, association, and hash only
	// while status is pending or consent_given.
	CompleteSignature(ctx context.Context, sig *entities.DigitalSignature) (bool, error)
	// TransitionStatus moves the entry to `to` only from one of `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entities.SignatureStatus, to entities.SignatureStatus) (bool, error)
	UpdateDocumentIntegrity(ctx context.Context, id uuid.UUID, documentHash string, integrity entities.DocumentIntegrity) error

	AppendAuditEvent(ctx context.Context, event *entities.AuditEvent) error
	ListAuditEvents(ctx context.Context, signatureID uuid.UUID) ([]entities.AuditEvent, error)
}
