package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	"esign.backend/internal/domain/repositories"
	"esign.backend/internal/domain/services"
	"esign.backend/internal/infrastructure/metrics"
	"esign.backend/pkg/crypto"
	"esign.backend/pkg/logger"
)

var errLostRace = errors.New("signature completed by a concurrent request")

var generateSignatureToken = crypto.GenerateRandomToken

// SignatureUsecase drives the signature request state machine
type SignatureUsecase struct {
	sigRepo      repositories.SignatureRepository
	uow          repositories.UnitOfWork
	documents    services.DocumentSource
	notifier     services.NotificationSender
	marker       services.DocumentMarker
	artifacts    services.ArtifactStore
	expiryWindow time.Duration
	portalURL    string
	now          func() time.Time
	dispatch     func(func())
}

// NewSignatureUsecase wires the lifecycle. artifacts may be nil, in which
// case signed documents are returned but not stored.
func NewSignatureUsecase(
	sigRepo repositories.SignatureRepository,
	uow repositories.UnitOfWork,
	documents services.DocumentSource,
	notifier services.NotificationSender,
	marker services.DocumentMarker,
	artifacts services.ArtifactStore,
	expiryWindow time.Duration,
	portalURL string,
) *SignatureUsecase {
	return &SignatureUsecase{
		sigRepo:      sigRepo,
		uow:          uow,
		documents:    documents,
		notifier:     notifier,
		marker:       marker,
		artifacts:    artifacts,
		expiryWindow: expiryWindow,
		portalURL:    strings.TrimRight(portalURL, "/"),
		now: func() time.Time {
			return time.Now().UTC()
		},
		dispatch: func(fn func()) {
			go fn()
		},
	}
}

// WithClock swaps the time source
func (u *SignatureUsecase) WithClock(now func() time.Time) *SignatureUsecase {
	u.now = now
	return u
}

// WithDispatcher swaps how background notifications are run
func (u *SignatureUsecase) WithDispatcher(dispatch func(func())) *SignatureUsecase {
	u.dispatch = dispatch
	return u
}

// timestamps are kept at the precision the database stores
func (u *SignatureUsecase) clock() time.Time {
	return u.now().UTC().Truncate(time.Microsecond)
}

// CreateSignature opens a pending request on behalf of an API key caller
func (u *SignatureUsecase) CreateSignature(ctx context.Context, input *entities.CreateSignatureInput, identity *entities.ApiKeyIdentity, client entities.ClientInfo) (sig *entities.DigitalSignature, err error) {
	defer func() { record(OpCreate, err) }()

	if identity == nil {
		return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyRequired, "API key is required")
	}
	if !identity.Permissions.HasAny(entities.PermissionCreateSignatures, entities.PermissionSignAgreements) {
		return nil, domainerrors.Forbidden("API key lacks permission to create signatures")
	}

	method := input.SignatureMethod
	if method == "" {
		method = entities.SignatureMethodAPIKey
	}
	if !method.Valid() {
		return nil, domainerrors.BadRequest("unsupported signature method")
	}

	signer, err := signerFromInput(input.Signer, identity)
	if err != nil {
		return nil, err
	}

	sig = &entities.DigitalSignature{
		SignerType:      signer.Type,
		SignerID:        optionalString(signer.ID),
		SignerModel:     signer.Model,
		SignerName:      signer.Name,
		SignerEmail:     optionalString(signer.Email),
		SignatureMethod: method,
		ApiKeyUsed:      uuid.NullUUID{UUID: identity.KeyID, Valid: identity.KeyID != uuid.Nil},
	}
	if err := u.create(ctx, OpCreate, sig, input, client); err != nil {
		return nil, err
	}

	if method == entities.SignatureMethodEmailInvitation && sig.SignerEmail.Valid {
		u.notify(ctx, noticeSignatureRequest, u.noticeFor(sig))
	}
	return sig, nil
}

// CreateInternalSignature opens a request for an employee or finance signer
// authenticated by a staff token.
func (u *SignatureUsecase) CreateInternalSignature(ctx context.Context, input *entities.CreateSignatureInput, staff *entities.StaffIdentity, client entities.ClientInfo) (sig *entities.DigitalSignature, err error) {
	defer func() { record(OpCreateInternal, err) }()

	if staff == nil {
		return nil, domainerrors.Unauthenticated("", "staff authentication required")
	}

	signer := entities.SignerInput{Type: entities.SignerTypeInternal}
	if input.Signer != nil {
		signer = *input.Signer
		if signer.Type == "" {
			signer.Type = entities.SignerTypeInternal
		}
	}
	if !signer.Type.ConsentExempt() {
		return nil, domainerrors.BadRequest("internal signatures require an internal or finance signer")
	}
	if signer.ID == "" {
		signer.ID = staff.UserID.String()
		signer.Model = entities.SignerModelUser
	}
	if strings.TrimSpace(signer.Name) == "" {
		signer.Name = staff.Name
	}
	if strings.TrimSpace(signer.Name) == "" {
		signer.Name = staff.Email
	}
	if signer.Email == "" {
		signer.Email = staff.Email
	}

	sig = &entities.DigitalSignature{
		SignerType:      signer.Type,
		SignerID:        optionalString(signer.ID),
		SignerModel:     signer.Model,
		SignerName:      strings.TrimSpace(signer.Name),
		SignerEmail:     optionalString(signer.Email),
		SignatureMethod: entities.SignatureMethodBuiltIn,
	}
	if err := u.create(ctx, OpCreateInternal, sig, input, client); err != nil {
		return nil, err
	}
	return sig, nil
}

func (u *SignatureUsecase) create(ctx context.Context, op string, sig *entities.DigitalSignature, input *entities.CreateSignatureInput, client entities.ClientInfo) error {
	documentID := strings.TrimSpace(input.DocumentID)
	if documentID == "" {
		return domainerrors.BadRequest("documentId is required")
	}
	if !input.DocumentType.Valid() {
		return domainerrors.BadRequest("unsupported document type")
	}
	if generationFailed(input.DocumentURL) {
		return domainerrors.BadRequest("document generation failed; regenerate the document before requesting a signature")
	}

	doc, err := u.documents.ResolveDocument(ctx, input.DocumentType, documentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("document not found")
		}
		return internalError(ctx, op, "", err)
	}

	url := strings.TrimSpace(input.DocumentURL)
	if url == "" {
		url = doc.URL
	}
	if url == "" {
		return domainerrors.BadRequest("document has no URL to sign")
	}
	if generationFailed(url) {
		return domainerrors.BadRequest("document generation failed; regenerate the document before requesting a signature")
	}

	signatureID, err := newSignatureID(u.now())
	if err != nil {
		return internalError(ctx, op, "", err)
	}

	now := u.clock()
	sig.SignatureID = signatureID
	sig.DocumentID = documentID
	sig.DocumentType = input.DocumentType
	sig.DocumentURL = url
	sig.Status = entities.SignatureStatusPending
	sig.DisplayFields = doc.DisplayFields
	sig.SignatureData = entities.SignatureData{
		Coordinates: input.Coordinates,
		DocumentIntegrity: entities.DocumentIntegrity{
			OriginalDocumentURL: url,
		},
	}
	sig.AuditTrail = entities.AuditTrail{
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Timestamp: null.TimeFrom(now),
	}
	sig.CreatedAt = now
	sig.UpdatedAt = now

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.sigRepo.Create(txCtx, sig); err != nil {
			return err
		}
		return u.sigRepo.AppendAuditEvent(txCtx, u.event(sig, entities.AuditActionCreated, client, map[string]string{
			"signer_type":      string(sig.SignerType),
			"signature_method": string(sig.SignatureMethod),
		}))
	})
	if err != nil {
		return internalError(ctx, op, sig.SignatureID, err)
	}

	logger.Info(ctx, "Signature request created",
		zap.String("signature_id", sig.SignatureID),
		zap.String("document_type", string(sig.DocumentType)),
		zap.String("signer_type", string(sig.SignerType)),
	)
	return nil
}

// GrantIntent records the signer's intent to sign
func (u *SignatureUsecase) GrantIntent(ctx context.Context, signatureID string, client entities.ClientInfo) (view *entities.SignatureStatusView, err error) {
	defer func() { record(OpGrantIntent, err) }()
	return u.grantConsent(ctx, OpGrantIntent, signatureID, repositories.ConsentFieldIntent, entities.AuditActionIntentGranted, client)
}

// GrantElectronicConsent records consent to do business electronically
func (u *SignatureUsecase) GrantElectronicConsent(ctx context.Context, signatureID string, client entities.ClientInfo) (view *entities.SignatureStatusView, err error) {
	defer func() { record(OpGrantConsent, err) }()
	return u.grantConsent(ctx, OpGrantConsent, signatureID, repositories.ConsentFieldElectronicBusiness, entities.AuditActionConsentGranted, client)
}

func (u *SignatureUsecase) grantConsent(ctx context.Context, op, signatureID string, field repositories.ConsentField, action string, client entities.ClientInfo) (*entities.SignatureStatusView, error) {
	sig, err := u.loadActive(ctx, op, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status.IsSigned() {
		return u.statusView(sig), nil
	}
	if !sig.Status.AcceptsMark() {
		return nil, closedError(sig.Status)
	}

	now := u.clock()
	consent := entities.ConsentRecord{
		Given:     true,
		Timestamp: null.TimeFrom(now),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		applied, err := u.sigRepo.GrantConsent(txCtx, sig.ID, field, consent)
		if err != nil || !applied {
			return err
		}
		return u.sigRepo.AppendAuditEvent(txCtx, u.event(sig, action, client, nil))
	})
	if err != nil {
		return nil, internalError(ctx, op, signatureID, err)
	}

	fresh, err := u.sigRepo.GetBySignatureID(ctx, signatureID)
	if err != nil {
		return nil, internalError(ctx, op, signatureID, err)
	}
	return u.statusView(fresh), nil
}

// SubmitSignature applies the signer's mark. The first successful submission
// completes the request; later ones return the stored state untouched.
func (u *SignatureUsecase) SubmitSignature(ctx context.Context, signatureID string, input *entities.SubmitSignatureInput, client entities.ClientInfo) (view *entities.SignatureStatusView, err error) {
	defer func() { record(OpSubmit, err) }()

	if !entities.ValidSignatureID(signatureID) {
		return nil, invalidSignatureID()
	}
	mark := entities.SignatureData{SignatureImage: input.SignatureImage, TypedSignature: strings.TrimSpace(input.TypedSignature)}
	if !mark.HasMark() {
		return nil, domainerrors.BadRequest("signatureImage or typedSignature is required")
	}

	sig, err := u.loadActive(ctx, OpSubmit, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status.IsSigned() {
		return u.statusView(sig), nil
	}
	if !sig.Status.AcceptsMark() {
		return nil, closedError(sig.Status)
	}

	now := u.clock()
	consentAt := entities.ConsentRecord{
		Given:     true,
		Timestamp: null.TimeFrom(now),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}

	var events []*entities.AuditEvent
	if input.IntentToSign != nil && *input.IntentToSign && !sig.IntentToSign.Given {
		sig.IntentToSign = consentAt
		events = append(events, u.event(sig, entities.AuditActionIntentGranted, client, map[string]string{"at": "signing"}))
	}
	if input.ConsentToElectronicBusiness != nil && *input.ConsentToElectronicBusiness && !sig.ConsentToElectronicBusiness.Given {
		sig.ConsentToElectronicBusiness = consentAt
		events = append(events, u.event(sig, entities.AuditActionConsentGranted, client, map[string]string{"at": "signing"}))
	}

	if sig.SignerType.ConsentExempt() {
		implicit := false
		if !sig.IntentToSign.Given {
			sig.IntentToSign = consentAt
			implicit = true
		}
		if !sig.ConsentToElectronicBusiness.Given {
			sig.ConsentToElectronicBusiness = consentAt
			implicit = true
		}
		if implicit {
			events = append(events, u.event(sig, entities.AuditActionImplicitConsent, client, map[string]string{
				"signer_type": string(sig.SignerType),
			}))
		}
	} else if !sig.IntentToSign.Given || !sig.ConsentToElectronicBusiness.Given {
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeConsentRequired,
			"intent to sign and consent to electronic business are required before signing", domainerrors.ErrInvalidInput)
	}

	sig.SignatureData.Timestamp = null.TimeFrom(now)
	sig.SignatureData.SignatureImage = mark.SignatureImage
	sig.SignatureData.TypedSignature = mark.TypedSignature
	if input.Coordinates != nil {
		sig.SignatureData.Coordinates = input.Coordinates
	}
	sig.SignatureAssociation = entities.SignatureAssociation{
		VerificationMethod: verificationMethodFor(sig),
		IdentityVerified:   true,
		VerifiedAt:         null.TimeFrom(now),
	}
	sig.AuditTrail.IPAddress = client.IPAddress
	sig.AuditTrail.UserAgent = client.UserAgent
	sig.AuditTrail.Timestamp = null.TimeFrom(now)
	sig.Status = entities.SignatureStatusCompleted
	sig.CompletedAt = null.TimeFrom(now)
	sig.SignatureHash = GenerateHash(sig)
	events = append(events, u.event(sig, entities.AuditActionSigned, client, map[string]string{
		"signature_hash": sig.SignatureHash,
	}))

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		applied, err := u.sigRepo.CompleteSignature(txCtx, sig)
		if err != nil {
			return err
		}
		if !applied {
			return errLostRace
		}
		for _, event := range events {
			if err := u.sigRepo.AppendAuditEvent(txCtx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		winner, err := u.sigRepo.GetBySignatureID(ctx, signatureID)
		if err != nil {
			return nil, internalError(ctx, OpSubmit, signatureID, err)
		}
		if !winner.Status.IsSigned() {
			return nil, closedError(winner.Status)
		}
		return u.statusView(winner), nil
	}
	if err != nil {
		return nil, internalError(ctx, OpSubmit, signatureID, err)
	}

	logger.Info(ctx, "Signature completed",
		zap.String("signature_id", sig.SignatureID),
		zap.String("document_type", string(sig.DocumentType)),
	)

	if sig.SignerEmail.Valid {
		u.notify(ctx, noticeCompletion, u.noticeFor(sig))
	}
	return u.statusView(sig), nil
}

// GetStatus returns the signer-safe projection
func (u *SignatureUsecase) GetStatus(ctx context.Context, signatureID string) (view *entities.SignatureStatusView, err error) {
	defer func() { record(OpStatus, err) }()

	sig, err := u.loadActive(ctx, OpStatus, signatureID)
	if err != nil {
		return nil, err
	}
	return u.statusView(sig), nil
}

// GetCompliance returns the full record with its compliance evaluation
func (u *SignatureUsecase) GetCompliance(ctx context.Context, signatureID string) (report *entities.ComplianceReport, err error) {
	defer func() { record(OpCompliance, err) }()

	sig, err := u.load(ctx, OpCompliance, signatureID)
	if err != nil {
		return nil, err
	}
	return u.complianceReport(sig), nil
}

// VerifySignature checks compliance and promotes a compliant completed entry
// to verified. A hash mismatch is reported and audited, never repaired.
func (u *SignatureUsecase) VerifySignature(ctx context.Context, signatureID string, client entities.ClientInfo) (report *entities.ComplianceReport, err error) {
	defer func() { record(OpVerify, err) }()

	sig, err := u.load(ctx, OpVerify, signatureID)
	if err != nil {
		return nil, err
	}
	report = u.complianceReport(sig)

	switch {
	case report.Mismatch != nil:
		err = u.sigRepo.AppendAuditEvent(ctx, u.event(sig, entities.AuditActionIntegrityFailure, client, map[string]string{
			"stored_hash":   sig.SignatureHash,
			"computed_hash": GenerateHash(sig),
		}))
		if err != nil {
			return nil, internalError(ctx, OpVerify, signatureID, err)
		}
		logger.Warn(ctx, "Signature integrity mismatch", zap.String("signature_id", signatureID))
		return report, nil

	case report.Checks.IsCompliant && sig.Status == entities.SignatureStatusCompleted:
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			applied, err := u.sigRepo.TransitionStatus(txCtx, sig.ID,
				[]entities.SignatureStatus{entities.SignatureStatusCompleted}, entities.SignatureStatusVerified)
			if err != nil || !applied {
				return err
			}
			return u.sigRepo.AppendAuditEvent(txCtx, u.event(sig, entities.AuditActionVerified, client, nil))
		})
		if err != nil {
			return nil, internalError(ctx, OpVerify, signatureID, err)
		}
		fresh, err := u.sigRepo.GetBySignatureID(ctx, signatureID)
		if err != nil {
			return nil, internalError(ctx, OpVerify, signatureID, err)
		}
		return u.complianceReport(fresh), nil
	}
	return report, nil
}

// RevokeSignature withdraws a request in any state other than revoked
func (u *SignatureUsecase) RevokeSignature(ctx context.Context, signatureID, reason string, actor string, client entities.ClientInfo) (sig *entities.DigitalSignature, err error) {
	defer func() { record(OpRevoke, err) }()

	sig, err = u.load(ctx, OpRevoke, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status == entities.SignatureStatusRevoked {
		return sig, nil
	}

	from := []entities.SignatureStatus{
		entities.SignatureStatusPending,
		entities.SignatureStatusConsentGiven,
		entities.SignatureStatusSigned,
		entities.SignatureStatusCompleted,
		entities.SignatureStatusVerified,
		entities.SignatureStatusExpired,
	}
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		applied, err := u.sigRepo.TransitionStatus(txCtx, sig.ID, from, entities.SignatureStatusRevoked)
		if err != nil || !applied {
			return err
		}
		return u.sigRepo.AppendAuditEvent(txCtx, u.event(sig, entities.AuditActionRevoked, client, map[string]string{
			"reason": reason,
			"actor":  actor,
		}))
	})
	if err != nil {
		return nil, internalError(ctx, OpRevoke, signatureID, err)
	}

	fresh, err := u.sigRepo.GetBySignatureID(ctx, signatureID)
	if err != nil {
		return nil, internalError(ctx, OpRevoke, signatureID, err)
	}
	return fresh, nil
}

// ListByDocument returns every entry bound to one document
func (u *SignatureUsecase) ListByDocument(ctx context.Context, documentID string, documentType entities.DocumentType) (sigs []*entities.DigitalSignature, err error) {
	defer func() { record(OpListByDocument, err) }()

	if strings.TrimSpace(documentID) == "" {
		return nil, domainerrors.BadRequest("documentId is required")
	}
	if !documentType.Valid() {
		return nil, domainerrors.BadRequest("unsupported document type")
	}
	sigs, err = u.sigRepo.ListByDocument(ctx, documentID, documentType)
	if err != nil {
		return nil, internalError(ctx, OpListByDocument, "", err)
	}
	return sigs, nil
}

// GenerateSignedDocument burns the stored mark into the source document and
// records the resulting integrity metadata.
func (u *SignatureUsecase) GenerateSignedDocument(ctx context.Context, signatureID string, override *services.PlacementOverride, client entities.ClientInfo) (doc *entities.SignedDocument, err error) {
	defer func() { record(OpGenerateSignedDoc, err) }()

	sig, err := u.load(ctx, OpGenerateSignedDoc, signatureID)
	if err != nil {
		return nil, err
	}
	if !sig.Status.IsSigned() {
		return nil, domainerrors.BadRequest("signature has not been completed")
	}

	source, err := u.documents.FetchDocumentBytes(ctx, sig.DocumentURL)
	if err != nil {
		return nil, internalError(ctx, OpGenerateSignedDoc, signatureID, err)
	}
	documentHash := crypto.SHA256Hex(source)

	if override == nil && sig.SignatureData.Coordinates != nil {
		override = overrideFrom(sig.SignatureData.Coordinates)
	}
	result, err := u.marker.MarkDocument(ctx, services.MarkRequest{
		Source:         source,
		DocumentType:   sig.DocumentType,
		SignatureImage: sig.SignatureData.SignatureImage,
		TypedSignature: sig.SignatureData.TypedSignature,
		Override:       override,
		SignedAt:       sig.SignatureData.Timestamp.Time,
	})
	if err != nil {
		logger.Error(ctx, "Document marking failed",
			zap.String("operation", OpGenerateSignedDoc),
			zap.String("signature_id", signatureID),
			zap.Error(err),
		)
		return nil, err
	}

	signedURL := ""
	if u.artifacts != nil {
		signedURL, err = u.artifacts.Put(ctx, sig.SignatureID+".pdf", result.Content)
		if err != nil {
			return nil, internalError(ctx, OpGenerateSignedDoc, signatureID, err)
		}
	}

	integrity := entities.DocumentIntegrity{
		Flattened:           true,
		WatermarkText:       result.WatermarkText,
		SignedTimestamp:     null.TimeFrom(u.clock()),
		OriginalDocumentURL: sig.DocumentURL,
		SignedDocumentURL:   signedURL,
	}
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.sigRepo.UpdateDocumentIntegrity(txCtx, sig.ID, documentHash, integrity); err != nil {
			return err
		}
		return u.sigRepo.AppendAuditEvent(txCtx, u.event(sig, entities.AuditActionDocumentMarked, client, map[string]string{
			"document_hash": documentHash,
			"original_size": strconv.Itoa(result.OriginalSize),
			"signed_size":   strconv.Itoa(result.SignedSize),
		}))
	})
	if err != nil {
		return nil, internalError(ctx, OpGenerateSignedDoc, signatureID, err)
	}

	return &entities.SignedDocument{
		SignatureID:   sig.SignatureID,
		Content:       result.Content,
		OriginalSize:  result.OriginalSize,
		SignedSize:    result.SignedSize,
		Placement:     result.Placement,
		WatermarkText: result.WatermarkText,
		DocumentHash:  documentHash,
		SignedURL:     signedURL,
	}, nil
}

// load validates the id shape before touching the store
func (u *SignatureUsecase) load(ctx context.Context, op, signatureID string) (*entities.DigitalSignature, error) {
	if !entities.ValidSignatureID(signatureID) {
		return nil, invalidSignatureID()
	}
	sig, err := u.sigRepo.GetBySignatureID(ctx, signatureID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("signature not found")
		}
		return nil, internalError(ctx, op, signatureID, err)
	}
	return sig, nil
}

// loadActive additionally applies the read-time expiry check
func (u *SignatureUsecase) loadActive(ctx context.Context, op, signatureID string) (*entities.DigitalSignature, error) {
	sig, err := u.load(ctx, op, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status == entities.SignatureStatusExpired || sig.IsExpired(u.now(), u.expiryWindow) {
		return nil, domainerrors.Expired("signature request has expired")
	}
	return sig, nil
}

func (u *SignatureUsecase) statusView(sig *entities.DigitalSignature) *entities.SignatureStatusView {
	consentGiven := sig.IntentToSign.Given && sig.ConsentToElectronicBusiness.Given
	return &entities.SignatureStatusView{
		SignatureID:                 sig.SignatureID,
		DocumentType:                sig.DocumentType,
		Status:                      sig.Status,
		SignerName:                  sig.SignerName,
		IntentToSign:                sig.IntentToSign.Given,
		ConsentToElectronicBusiness: sig.ConsentToElectronicBusiness.Given,
		ConsentRequired:             !sig.SignerType.ConsentExempt() && !consentGiven,
		SignedAt:                    sig.SignatureData.Timestamp,
		ExpiresAt:                   sig.ExpiresAt(u.expiryWindow),
		CreatedAt:                   sig.CreatedAt,
	}
}

func (u *SignatureUsecase) complianceReport(sig *entities.DigitalSignature) *entities.ComplianceReport {
	checks := VerifyLegalCompliance(sig)
	report := &entities.ComplianceReport{
		Signature: sig,
		Checks:    checks,
		CheckedAt: u.now(),
	}
	if !checks.IntentToSign {
		report.Issues = append(report.Issues, "intent to sign has not been recorded")
	}
	if !checks.ConsentToElectronicBusiness {
		report.Issues = append(report.Issues, "consent to electronic business has not been recorded")
	}
	if !checks.IdentityVerified {
		report.Issues = append(report.Issues, "signer identity has not been verified")
	}
	switch {
	case sig.SignatureHash == "":
		report.Issues = append(report.Issues, "signature hash has not been generated")
	case !checks.SignatureValid:
		report.Issues = append(report.Issues, "signature hash does not match the signed fields")
		report.Mismatch = domainerrors.IntegrityMismatch("stored signature hash does not match the recomputed hash")
	}
	return report
}

func (u *SignatureUsecase) event(sig *entities.DigitalSignature, action string, client entities.ClientInfo, details map[string]string) *entities.AuditEvent {
	return &entities.AuditEvent{
		SignatureID: sig.ID,
		Action:      action,
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
		OccurredAt:  u.clock(),
		Details:     details,
	}
}

func (u *SignatureUsecase) noticeFor(sig *entities.DigitalSignature) entities.SignatureNotice {
	notice := entities.SignatureNotice{
		Email:        sig.SignerEmail.String,
		SignatureID:  sig.SignatureID,
		DocumentType: sig.DocumentType,
		SignerName:   sig.SignerName,
		DealInfo:     sig.DisplayFields,
	}
	if u.portalURL != "" {
		notice.SigningURL = u.portalURL + "/" + sig.SignatureID
	}
	return notice
}

// notify runs send in the background. Failures are logged and counted only.
func (u *SignatureUsecase) notify(ctx context.Context, kind string, notice entities.SignatureNotice) {
	if u.notifier == nil {
		return
	}
	send := u.notifier.SendCompletionNotice
	if kind == noticeSignatureRequest {
		send = u.notifier.SendSignatureRequest
	}
	bg := context.WithoutCancel(ctx)
	u.dispatch(func() {
		err := send(bg, notice)
		metrics.Notifications.WithLabelValues(kind, metrics.Outcome(err)).Inc()
		if err != nil {
			logger.Warn(bg, "Signer notification failed",
				zap.String("kind", kind),
				zap.String("signature_id", notice.SignatureID),
				zap.Error(err),
			)
		}
	})
}

func signerFromInput(in *entities.SignerInput, identity *entities.ApiKeyIdentity) (entities.SignerInput, error) {
	if in != nil {
		signer := *in
		signer.Name = strings.TrimSpace(signer.Name)
		if signer.Type == "" {
			signer.Type = signerTypeForKey(identity.Type)
		}
		if !signer.Type.Valid() {
			return signer, domainerrors.BadRequest("unsupported signer type")
		}
		if signer.Name == "" {
			return signer, domainerrors.BadRequest("signer name is required")
		}
		return signer, nil
	}

	signer := entities.SignerInput{
		Type: signerTypeForKey(identity.Type),
		ID:   identity.Entity.ID,
		Name: identity.Name,
	}
	switch identity.Entity.Kind {
	case entities.EntityKindUser:
		signer.Model = entities.SignerModelUser
	case entities.EntityKindDealer:
		signer.Model = entities.SignerModelDealer
	}
	return signer, nil
}

func signerTypeForKey(t entities.ApiKeyType) entities.SignerType {
	switch t {
	case entities.ApiKeyTypeDealer:
		return entities.SignerTypeDealer
	case entities.ApiKeyTypeInternal, entities.ApiKeyTypeSystem:
		return entities.SignerTypeInternal
	}
	return entities.SignerTypeCustomer
}

func verificationMethodFor(sig *entities.DigitalSignature) string {
	switch sig.SignatureMethod {
	case entities.SignatureMethodEmailInvitation, entities.SignatureMethodEmailVerification:
		return entities.VerificationMethodEmailLink
	case entities.SignatureMethodBuiltIn:
		return entities.VerificationMethodEmployeeAuth
	}
	if sig.SignerType.ConsentExempt() {
		return entities.VerificationMethodEmployeeAuth
	}
	return entities.VerificationMethodAPIKey
}

func overrideFrom(c *entities.Coordinates) *services.PlacementOverride {
	o := &services.PlacementOverride{}
	if c.Width > 0 && c.Height > 0 {
		x, y, w, h := c.X, c.Y, c.Width, c.Height
		o.X, o.Y, o.Width, o.Height = &x, &y, &w, &h
	}
	if c.Page > 0 {
		page := c.Page
		o.Page = &page
	}
	return o
}

func newSignatureID(at time.Time) (string, error) {
	token, err := generateSignatureToken(8)
	if err != nil {
		return "", fmt.Errorf("generate signature id: %w", err)
	}
	return entities.SignatureIDPrefix + strconv.FormatInt(at.UnixMilli(), 10) + "_" + token, nil
}

func optionalString(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}

func invalidSignatureID() error {
	return domainerrors.BadRequest("invalid signature id")
}

// closedError maps a status that no longer accepts consent or a mark to the
// caller-facing error. Statuses still open yield a conflict.
func closedError(status entities.SignatureStatus) error {
	switch status {
	case entities.SignatureStatusRevoked:
		return revokedError()
	case entities.SignatureStatusExpired:
		return domainerrors.Expired("signature request has expired")
	case entities.SignatureStatusPending, entities.SignatureStatusConsentGiven:
		return domainerrors.Conflict("signature request changed while signing, retry")
	}
	return domainerrors.Conflict("signature request cannot be signed in status " + string(status))
}

func revokedError() error {
	return domainerrors.NewAppError(http.StatusGone, domainerrors.CodeExpired, "signature request has been revoked", domainerrors.ErrExpired)
}

func record(op string, err error) {
	metrics.SignatureOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
}

func internalError(ctx context.Context, operation, signatureID string, err error) error {
	logger.Error(ctx, "Signature operation failed",
		zap.String("operation", operation),
		zap.String("signature_id", signatureID),
		zap.Error(err),
	)
	return domainerrors.InternalError(err)
}
