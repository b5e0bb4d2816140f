package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	domainerrors "esign.backend/internal/domain/errors"
)

// SignatureStatus is the ledger state of a signature request
type SignatureStatus string

const (
	SignatureStatusPending      SignatureStatus = "pending"
	SignatureStatusConsentGiven SignatureStatus = "consent_given"
	SignatureStatusSigned       SignatureStatus = "signed"
	SignatureStatusVerified     SignatureStatus = "verified"
	SignatureStatusExpired      SignatureStatus = "expired"
	SignatureStatusRevoked      SignatureStatus = "revoked"
	SignatureStatusCompleted    SignatureStatus = "completed"
)

// IsSigned reports whether a mark has already been recorded
func (s SignatureStatus) IsSigned() bool {
	switch s {
	case SignatureStatusSigned, SignatureStatusCompleted, SignatureStatusVerified:
		return true
	}
	return false
}

// AcceptsMark reports whether a first mark submission may be applied
func (s SignatureStatus) AcceptsMark() bool {
	return s == SignatureStatusPending || s == SignatureStatusConsentGiven
}

// DocumentType is the closed set of documents that can be signed
type DocumentType string

const (
	DocumentTypeWholesaleBOS       DocumentType = "wholesale_bos"
	DocumentTypeRetailBOS          DocumentType = "retail_bos"
	DocumentTypePurchaseAgreement  DocumentType = "purchase_agreement"
	DocumentTypeTransportAgreement DocumentType = "transport_agreement"
	DocumentTypeOdometerDisclosure DocumentType = "odometer_disclosure"
	DocumentTypePowerOfAttorney    DocumentType = "power_of_attorney"
	DocumentTypeFinanceAgreement   DocumentType = "finance_agreement"
	DocumentTypeDealerAgreement    DocumentType = "dealer_agreement"
)

// DocumentTypes lists every accepted document type
var DocumentTypes = []DocumentType{
	DocumentTypeWholesaleBOS,
	DocumentTypeRetailBOS,
	DocumentTypePurchaseAgreement,
	DocumentTypeTransportAgreement,
	DocumentTypeOdometerDisclosure,
	DocumentTypePowerOfAttorney,
	DocumentTypeFinanceAgreement,
	DocumentTypeDealerAgreement,
}

func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SignerType classifies who is signing
type SignerType string

const (
	SignerTypeInternal SignerType = "internal"
	SignerTypeCustomer SignerType = "customer"
	SignerTypeDealer   SignerType = "dealer"
	SignerTypeFinance  SignerType = "finance"
	SignerTypeClient   SignerType = "client"
)

func (t SignerType) Valid() bool {
	switch t {
	case SignerTypeInternal, SignerTypeCustomer, SignerTypeDealer, SignerTypeFinance, SignerTypeClient:
		return true
	}
	return false
}

// ConsentExempt reports whether the signer's employment relationship stands in
// for the two consent checkboxes. Audit metadata is still captured for them.
func (t SignerType) ConsentExempt() bool {
	switch t {
	case SignerTypeInternal, SignerTypeFinance:
		return true
	}
	return false
}

// SignerModel names the record a signer id points at
type SignerModel string

const (
	SignerModelUser   SignerModel = "User"
	SignerModelDealer SignerModel = "Dealer"
)

// SignatureMethod records how the signer was reached
type SignatureMethod string

const (
	SignatureMethodAPIKey            SignatureMethod = "api_key"
	SignatureMethodEmailVerification SignatureMethod = "email_verification"
	SignatureMethodManual            SignatureMethod = "manual"
	SignatureMethodBuiltIn           SignatureMethod = "built_in"
	SignatureMethodEmailInvitation   SignatureMethod = "email_invitation"
)

func (m SignatureMethod) Valid() bool {
	switch m {
	case SignatureMethodAPIKey, SignatureMethodEmailVerification, SignatureMethodManual,
		SignatureMethodBuiltIn, SignatureMethodEmailInvitation:
		return true
	}
	return false
}

// Identity verification methods
const (
	VerificationMethodAPIKey       = "api_key"
	VerificationMethodEmailLink    = "email_link"
	VerificationMethodEmployeeAuth = "employee_auth"
)

// Signature id format
const (
	SignatureIDPrefix    = "sig_"
	SignatureIDMinLength = 20
)

// ValidSignatureID checks the public identifier shape before any lookup
func ValidSignatureID(id string) bool {
	if len(id) < SignatureIDMinLength || !strings.HasPrefix(id, SignatureIDPrefix) {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// ConsentRecord is one affirmative ESIGN/UETA action with its audit metadata
type ConsentRecord struct {
	Given     bool      `json:"given"`
	Timestamp null.Time `json:"timestamp"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

type SignatureAssociation struct {
	VerificationMethod string    `json:"verificationMethod"`
	IdentityVerified   bool      `json:"identityVerified"`
	VerifiedAt         null.Time `json:"verifiedAt"`
}

// Coordinates is a placement box in PDF points, origin bottom-left
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page,omitempty"`
}

type DocumentIntegrity struct {
	Flattened           bool      `json:"flattened"`
	WatermarkText       string    `json:"watermarkText,omitempty"`
	SignedTimestamp     null.Time `json:"signedTimestamp"`
	OriginalDocumentURL string    `json:"originalDocumentUrl,omitempty"`
	SignedDocumentURL   string    `json:"signedDocumentUrl,omitempty"`
}

type SignatureData struct {
	Timestamp         null.Time         `json:"timestamp"`
	Coordinates       *Coordinates      `json:"coordinates,omitempty"`
	SignatureImage    string            `json:"signatureImage,omitempty"`
	TypedSignature    string            `json:"typedSignature,omitempty"`
	DocumentHash      string            `json:"documentHash,omitempty"`
	DocumentIntegrity DocumentIntegrity `json:"documentIntegrity"`
}

// HasMark reports whether an image or typed mark is present
func (d SignatureData) HasMark() bool {
	return strings.TrimSpace(d.SignatureImage) != "" || strings.TrimSpace(d.TypedSignature) != ""
}

// Audit actions
const (
	AuditActionCreated          = "created"
	AuditActionIntentGranted    = "intent_to_sign_granted"
	AuditActionConsentGranted   = "electronic_consent_granted"
	AuditActionImplicitConsent  = "implicit_consent"
	AuditActionSigned           = "signed"
	AuditActionVerified         = "verified"
	AuditActionRevoked          = "revoked"
	AuditActionDocumentMarked   = "document_marked"
	AuditActionIntegrityFailure = "integrity_mismatch"
)

type AuditEvent struct {
	ID          uuid.UUID         `json:"id"`
	SignatureID uuid.UUID         `json:"-"`
	Action      string            `json:"action"`
	IPAddress   string            `json:"ipAddress,omitempty"`
	UserAgent   string            `json:"userAgent,omitempty"`
	OccurredAt  time.Time         `json:"timestamp"`
	Details     map[string]string `json:"details,omitempty"`
}

// AuditTrail holds the latest client metadata plus the append-only event log
type AuditTrail struct {
	IPAddress string       `json:"ipAddress,omitempty"`
	UserAgent string       `json:"userAgent,omitempty"`
	Timestamp null.Time    `json:"timestamp"`
	Events    []AuditEvent `json:"events"`
}

// DigitalSignature is one ledger entry of the signature state machine
type DigitalSignature struct {
	ID                          uuid.UUID            `json:"id"`
	SignatureID                 string               `json:"signatureId"`
	DocumentID                  string               `json:"documentId"`
	DocumentType                DocumentType         `json:"documentType"`
	DocumentURL                 string               `json:"documentUrl"`
	SignerType                  SignerType           `json:"signerType"`
	SignerID                    null.String          `json:"signerId,omitempty"`
	SignerModel                 SignerModel          `json:"signerModel,omitempty"`
	SignerName                  string               `json:"signerName"`
	SignerEmail                 null.String          `json:"signerEmail,omitempty"`
	SignatureMethod             SignatureMethod      `json:"signatureMethod"`
	IntentToSign                ConsentRecord        `json:"intentToSign"`
	ConsentToElectronicBusiness ConsentRecord        `json:"consentToElectronicBusiness"`
	SignatureAssociation        SignatureAssociation `json:"signatureAssociation"`
	SignatureData               SignatureData        `json:"signatureData"`
	AuditTrail                  AuditTrail           `json:"auditTrail"`
	SignatureHash               string               `json:"signatureHash,omitempty"`
	Status                      SignatureStatus      `json:"status"`
	ApiKeyUsed                  uuid.NullUUID        `json:"apiKeyUsed"`
	DisplayFields               map[string]string    `json:"displayFields,omitempty"`
	CreatedAt                   time.Time            `json:"createdAt"`
	UpdatedAt                   time.Time            `json:"updatedAt"`
	CompletedAt                 null.Time            `json:"completedAt,omitempty"`
}

// SignerKey is the signer identifier bound into the compliance hash
func (s *DigitalSignature) SignerKey() string {
	if s.SignerID.Valid {
		return s.SignerID.String
	}
	return ""
}

// ExpiresAt is when the request stops accepting consent, status, and sign calls
func (s *DigitalSignature) ExpiresAt(window time.Duration) time.Time {
	return s.CreatedAt.Add(window)
}

// IsExpired applies the read-time age check
func (s *DigitalSignature) IsExpired(now time.Time, window time.Duration) bool {
	return now.Sub(s.CreatedAt) > window
}

// ClientInfo is the request metadata stamped into consent and audit records
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// SignerInput is an explicit signer payload supplied at creation
type SignerInput struct {
	Type  SignerType  `json:"type"`
	ID    string      `json:"id"`
	Model SignerModel `json:"model"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
}

type CreateSignatureInput struct {
	DocumentID      string          `json:"documentId" binding:"required"`
	DocumentType    DocumentType    `json:"documentType" binding:"required"`
	DocumentURL     string          `json:"documentUrl"`
	SignatureMethod SignatureMethod `json:"signatureMethod"`
	Signer          *SignerInput    `json:"signer"`
	Coordinates     *Coordinates    `json:"coordinates"`
}

type SubmitSignatureInput struct {
	SignatureImage              string       `json:"signatureImage"`
	TypedSignature              string       `json:"typedSignature"`
	Coordinates                 *Coordinates `json:"coordinates"`
	IntentToSign                *bool        `json:"intentToSign"`
	ConsentToElectronicBusiness *bool        `json:"consentToElectronicBusiness"`
}

// SignatureStatusView is the signer-safe projection served to public callers
type SignatureStatusView struct {
	SignatureID                 string          `json:"signatureId"`
	DocumentType                DocumentType    `json:"documentType"`
	Status                      SignatureStatus `json:"status"`
	SignerName                  string          `json:"signerName"`
	IntentToSign                bool            `json:"intentToSign"`
	ConsentToElectronicBusiness bool            `json:"consentToElectronicBusiness"`
	ConsentRequired             bool            `json:"consentRequired"`
	SignedAt                    null.Time       `json:"signedAt"`
	ExpiresAt                   time.Time       `json:"expiresAt"`
	CreatedAt                   time.Time       `json:"createdAt"`
}

// ComplianceChecks are the four legal-compliance gates
type ComplianceChecks struct {
	IsCompliant                 bool `json:"isCompliant"`
	IntentToSign                bool `json:"intentToSign"`
	ConsentToElectronicBusiness bool `json:"consentToElectronicBusiness"`
	IdentityVerified            bool `json:"identityVerified"`
	SignatureValid              bool `json:"signatureValid"`
}

// ComplianceReport is the full projection returned to internal callers
type ComplianceReport struct {
	Signature *DigitalSignature      `json:"signature"`
	Checks    ComplianceChecks       `json:"compliance"`
	Issues    []string               `json:"issues,omitempty"`
	Mismatch  *domainerrors.AppError `json:"integrityMismatch,omitempty"`
	CheckedAt time.Time              `json:"checkedAt"`
}

// SignedDocument is the result of burning a mark into a document
type SignedDocument struct {
	SignatureID   string      `json:"signatureId"`
	Content       []byte      `json:"-"`
	OriginalSize  int         `json:"originalSize"`
	SignedSize    int         `json:"signedSize"`
	Placement     Coordinates `json:"placement"`
	WatermarkText string      `json:"watermarkText"`
	DocumentHash  string      `json:"documentHash"`
	SignedURL     string      `json:"signedDocumentUrl,omitempty"`
}
