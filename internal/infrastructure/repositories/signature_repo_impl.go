package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
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

type SignatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepository(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

type consentColumns struct {
	flag, at, ip, userAgent string
}

func columnsFor(field domainRepos.ConsentField) (consentColumns, error) {
	switch field {
	case domainRepos.ConsentFieldIntent:
		return consentColumns{"intent_to_sign", "intent_at", "intent_ip", "intent_user_agent"}, nil
	case domainRepos.ConsentFieldElectronicBusiness:
		return consentColumns{"consent_to_electronic_business", "consent_at", "consent_ip", "consent_user_agent"}, nil
	}
	return consentColumns{}, fmt.Errorf("%w: unknown consent field %q", domainerrors.ErrInvalidInput, field)
}

func (r *SignatureRepository) Create(ctx context.Context, sig *entities.DigitalSignature) error {
	if sig.ID == uuid.Nil {
		sig.ID = utils.GenerateUUIDv7()
	}
	m, err := r.toModel(sig)
	if err != nil {
		return err
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return translateError(err)
	}
	sig.CreatedAt = m.CreatedAt
	sig.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *SignatureRepository) GetBySignatureID(ctx context.Context, signatureID string) (*entities.DigitalSignature, error) {
	var m models.DigitalSignature
	if err := GetDB(ctx, r.db).Where("signature_id = ?", signatureID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	sig, err := r.toEntity(&m)
	if err != nil {
		return nil, err
	}
	events, err := r.ListAuditEvents(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	sig.AuditTrail.Events = events
	return sig, nil
}

func (r *SignatureRepository) ListByDocument(ctx context.Context, documentID string, documentType entities.DocumentType) ([]*entities.DigitalSignature, error) {
	query := GetDB(ctx, r.db).Where("document_id = ?", documentID)
	if documentType != "" {
		query = query.Where("document_type = ?", string(documentType))
	}

	var ms []models.DigitalSignature
	if err := query.Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.DigitalSignature, 0, len(ms))
	for i := range ms {
		sig, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		items = append(items, sig)
	}
	return items, nil
}

func (r *SignatureRepository) GrantConsent(ctx context.Context, id uuid.UUID, field domainRepos.ConsentField, record entities.ConsentRecord) (bool, error) {
	cols, err := columnsFor(field)
	if err != nil {
		return false, err
	}
	db := GetDB(ctx, r.db)
	now := time.Now()

	result := db.Model(&models.DigitalSignature{}).
		Where("id = ? AND "+cols.flag+" = ?", id, false).
		Updates(map[string]interface{}{
			cols.flag:      true,
			cols.at:        record.Timestamp.Ptr(),
			cols.ip:        record.IPAddress,
			cols.userAgent: record.UserAgent,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	applied := result.RowsAffected > 0

	promote := db.Model(&models.DigitalSignature{}).
		Where("id = ? AND status = ? AND intent_to_sign = ? AND consent_to_electronic_business = ?",
			id, string(entities.SignatureStatusPending), true, true).
		Updates(map[string]interface{}{
			"status":     string(entities.SignatureStatusConsentGiven),
			"updated_at": now,
		})
	if promote.Error != nil {
		return false, promote.Error
	}
	return applied, nil
}

func (r *SignatureRepository) CompleteSignature(ctx context.Context, sig *entities.DigitalSignature) (bool, error) {
	coords, err := marshalJSON(sig.SignatureData.Coordinates)
	if err != nil {
		return false, err
	}
	data := sig.SignatureData
	updates := map[string]interface{}{
		"intent_to_sign":                 sig.IntentToSign.Given,
		"intent_at":                      sig.IntentToSign.Timestamp.Ptr(),
		"intent_ip":                      sig.IntentToSign.IPAddress,
		"intent_user_agent":              sig.IntentToSign.UserAgent,
		"consent_to_electronic_business": sig.ConsentToElectronicBusiness.Given,
		"consent_at":                     sig.ConsentToElectronicBusiness.Timestamp.Ptr(),
		"consent_ip":                     sig.ConsentToElectronicBusiness.IPAddress,
		"consent_user_agent":             sig.ConsentToElectronicBusiness.UserAgent,
		"verification_method":            sig.SignatureAssociation.VerificationMethod,
		"identity_verified":              sig.SignatureAssociation.IdentityVerified,
		"verified_at":                    sig.SignatureAssociation.VerifiedAt.Ptr(),
		"signed_at":                      data.Timestamp.Ptr(),
		"coordinates":                    coords,
		"signature_image":                data.SignatureImage,
		"typed_signature":                data.TypedSignature,
		"audit_ip":                       sig.AuditTrail.IPAddress,
		"audit_user_agent":               sig.AuditTrail.UserAgent,
		"audit_at":                       sig.AuditTrail.Timestamp.Ptr(),
		"signature_hash":                 sig.SignatureHash,
		"status":                         string(sig.Status),
		"completed_at":                   sig.CompletedAt.Ptr(),
		"updated_at":                     time.Now(),
	}

	result := GetDB(ctx, r.db).Model(&models.DigitalSignature{}).
		Where("id = ? AND status IN ?", sig.ID, []string{
			string(entities.SignatureStatusPending),
			string(entities.SignatureStatusConsentGiven),
		}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SignatureRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entities.SignatureStatus, to entities.SignatureStatus) (bool, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}
	if len(allowed) == 0 {
		return false, nil
	}
	result := GetDB(ctx, r.db).Model(&models.DigitalSignature{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SignatureRepository) UpdateDocumentIntegrity(ctx context.Context, id uuid.UUID, documentHash string, integrity entities.DocumentIntegrity) error {
	result := GetDB(ctx, r.db).Model(&models.DigitalSignature{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"document_hash":         documentHash,
			"flattened":             integrity.Flattened,
			"watermark_text":        integrity.WatermarkText,
			"integrity_signed_at":   integrity.SignedTimestamp.Ptr(),
			"original_document_url": integrity.OriginalDocumentURL,
			"signed_document_url":   integrity.SignedDocumentURL,
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *SignatureRepository) AppendAuditEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.ID == uuid.Nil {
		event.ID = utils.GenerateUUIDv7()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	details, err := marshalJSON(event.Details)
	if err != nil {
		return err
	}
	db := GetDB(ctx, r.db)
	if err := db.Create(&models.SignatureAuditEvent{
		ID:          event.ID,
		SignatureID: event.SignatureID,
		Action:      event.Action,
		IPAddress:   event.IPAddress,
		UserAgent:   event.UserAgent,
		Details:     details,
		OccurredAt:  event.OccurredAt,
	}).Error; err != nil {
		return err
	}

	// keep the trail header pointing at the latest client
	return db.Model(&models.DigitalSignature{}).
		Where("id = ?", event.SignatureID).
		UpdateColumns(map[string]interface{}{
			"audit_ip":         event.IPAddress,
			"audit_user_agent": event.UserAgent,
			"audit_at":         event.OccurredAt,
		}).Error
}

func (r *SignatureRepository) ListAuditEvents(ctx context.Context, signatureID uuid.UUID) ([]entities.AuditEvent, error) {
	var ms []models.SignatureAuditEvent
	if err := GetDB(ctx, r.db).
		Where("signature_id = ?", signatureID).
		Order("occurred_at ASC, id ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	events := make([]entities.AuditEvent, 0, len(ms))
	for i := range ms {
		var details map[string]string
		if err := unmarshalJSON(ms[i].Details, &details); err != nil {
			return nil, err
		}
		events = append(events, entities.AuditEvent{
			ID:          ms[i].ID,
			SignatureID: ms[i].SignatureID,
			Action:      ms[i].Action,
			IPAddress:   ms[i].IPAddress,
			UserAgent:   ms[i].UserAgent,
			OccurredAt:  ms[i].OccurredAt,
			Details:     details,
		})
	}
	return events, nil
}

func (r *SignatureRepository) toEntity(m *models.DigitalSignature) (*entities.DigitalSignature, error) {
	var coords *entities.Coordinates
	if err := unmarshalJSON(m.Coordinates, &coords); err != nil {
		return nil, err
	}
	var display map[string]string
	if err := unmarshalJSON(m.DisplayFields, &display); err != nil {
		return nil, err
	}

	return &entities.DigitalSignature{
		ID:              m.ID,
		SignatureID:     m.SignatureID,
		DocumentID:      m.DocumentID,
		DocumentType:    entities.DocumentType(m.DocumentType),
		DocumentURL:     m.DocumentURL,
		SignerType:      entities.SignerType(m.SignerType),
		SignerID:        null.NewString(m.SignerID.String, m.SignerID.Valid),
		SignerModel:     entities.SignerModel(m.SignerModel),
		SignerName:      m.SignerName,
		SignerEmail:     null.NewString(m.SignerEmail.String, m.SignerEmail.Valid),
		SignatureMethod: entities.SignatureMethod(m.SignatureMethod),
		IntentToSign: entities.ConsentRecord{
			Given:     m.IntentToSign,
			Timestamp: null.TimeFromPtr(m.IntentAt),
			IPAddress: m.IntentIP,
			UserAgent: m.IntentUserAgent,
		},
		ConsentToElectronicBusiness: entities.ConsentRecord{
			Given:     m.ConsentToElectronicBusiness,
			Timestamp: null.TimeFromPtr(m.ConsentAt),
			IPAddress: m.ConsentIP,
			UserAgent: m.ConsentUserAgent,
		},
		SignatureAssociation: entities.SignatureAssociation{
			VerificationMethod: m.VerificationMethod,
			IdentityVerified:   m.IdentityVerified,
			VerifiedAt:         null.TimeFromPtr(m.VerifiedAt),
		},
		SignatureData: entities.SignatureData{
			Timestamp:      null.TimeFromPtr(m.SignedAt),
			Coordinates:    coords,
			SignatureImage: m.SignatureImage,
			TypedSignature: m.TypedSignature,
			DocumentHash:   m.DocumentHash,
			DocumentIntegrity: entities.DocumentIntegrity{
				Flattened:           m.Flattened,
				WatermarkText:       m.WatermarkText,
				SignedTimestamp:     null.TimeFromPtr(m.IntegritySignedAt),
				OriginalDocumentURL: m.OriginalDocumentURL,
				SignedDocumentURL:   m.SignedDocumentURL,
			},
		},
		AuditTrail: entities.AuditTrail{
			IPAddress: m.AuditIP,
			UserAgent: m.AuditUserAgent,
			Timestamp: null.TimeFromPtr(m.AuditAt),
			Events:    []entities.AuditEvent{},
		},
		SignatureHash: m.SignatureHash,
		Status:        entities.SignatureStatus(m.Status),
		ApiKeyUsed:    m.ApiKeyUsed,
		DisplayFields: display,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   null.TimeFromPtr(m.CompletedAt),
	}, nil
}

func (r *SignatureRepository) toModel(e *entities.DigitalSignature) (*models.DigitalSignature, error) {
	coords, err := marshalJSON(e.SignatureData.Coordinates)
	if err != nil {
		return nil, err
	}
	display, err := marshalJSON(e.DisplayFields)
	if err != nil {
		return nil, err
	}

	return &models.DigitalSignature{
		ID:                          e.ID,
		SignatureID:                 e.SignatureID,
		DocumentID:                  e.DocumentID,
		DocumentType:                string(e.DocumentType),
		DocumentURL:                 e.DocumentURL,
		SignerType:                  string(e.SignerType),
		SignerID:                    sql.NullString{String: e.SignerID.String, Valid: e.SignerID.Valid},
		SignerModel:                 string(e.SignerModel),
		SignerName:                  e.SignerName,
		SignerEmail:                 sql.NullString{String: e.SignerEmail.String, Valid: e.SignerEmail.Valid},
		SignatureMethod:             string(e.SignatureMethod),
		IntentToSign:                e.IntentToSign.Given,
		IntentAt:                    e.IntentToSign.Timestamp.Ptr(),
		IntentIP:                    e.IntentToSign.IPAddress,
		IntentUserAgent:             e.IntentToSign.UserAgent,
		ConsentToElectronicBusiness: e.ConsentToElectronicBusiness.Given,
		ConsentAt:                   e.ConsentToElectronicBusiness.Timestamp.Ptr(),
		ConsentIP:                   e.ConsentToElectronicBusiness.IPAddress,
		ConsentUserAgent:            e.ConsentToElectronicBusiness.UserAgent,
		VerificationMethod:          e.SignatureAssociation.VerificationMethod,
		IdentityVerified:            e.SignatureAssociation.IdentityVerified,
		VerifiedAt:                  e.SignatureAssociation.VerifiedAt.Ptr(),
		SignedAt:                    e.SignatureData.Timestamp.Ptr(),
		Coordinates:                 coords,
		SignatureImage:              e.SignatureData.SignatureImage,
		TypedSignature:              e.SignatureData.TypedSignature,
		DocumentHash:                e.SignatureData.DocumentHash,
		Flattened:                   e.SignatureData.DocumentIntegrity.Flattened,
		WatermarkText:               e.SignatureData.DocumentIntegrity.WatermarkText,
		IntegritySignedAt:           e.SignatureData.DocumentIntegrity.SignedTimestamp.Ptr(),
		OriginalDocumentURL:         e.SignatureData.DocumentIntegrity.OriginalDocumentURL,
		SignedDocumentURL:           e.SignatureData.DocumentIntegrity.SignedDocumentURL,
		AuditIP:                     e.AuditTrail.IPAddress,
		AuditUserAgent:              e.AuditTrail.UserAgent,
		AuditAt:                     e.AuditTrail.Timestamp.Ptr(),
		SignatureHash:               e.SignatureHash,
		Status:                      string(e.Status),
		ApiKeyUsed:                  e.ApiKeyUsed,
		DisplayFields:               display,
		CreatedAt:                   e.CreatedAt,
		UpdatedAt:                   e.UpdatedAt,
		CompletedAt:                 e.CompletedAt.Ptr(),
	}, nil
}

func marshalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "", nil
	}
	return string(b), nil
}

func unmarshalJSON(raw string, v interface{}) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
