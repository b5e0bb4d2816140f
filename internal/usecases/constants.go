package usecases

import "strings"

// API key format: esk_ followed by 64 hex characters
const (
	ApiKeyPrefix      = "esk_"
	apiKeyRandomBytes = 32
	apiKeyDisplayLen  = len(ApiKeyPrefix) + 8
)

// StaffRoleAdmin may manage API keys
const StaffRoleAdmin = "ADMIN"

// Operation names used in logs and metrics
const (
	OpCreate            = "create"
	OpCreateInternal    = "create_internal"
	OpGrantIntent       = "grant_intent"
	OpGrantConsent      = "grant_consent"
	OpSubmit            = "submit"
	OpStatus            = "status"
	OpCompliance        = "compliance"
	OpVerify            = "verify"
	OpRevoke            = "revoke"
	OpListByDocument    = "list_by_document"
	OpGenerateSignedDoc = "generate_signed_document"
)

// Notification kinds
const (
	noticeSignatureRequest = "signature_request"
	noticeCompletion       = "completion"
)

// generationFailedMarkers flag document URLs the generator could not produce
var generationFailedMarkers = []string{"generation_failed", "generation-failed"}

func generationFailed(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range generationFailedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
