package usecases

import (
	"strconv"
	"strings"
	"time"

	"esign.backend/internal/domain/entities"
	"esign.backend/pkg/crypto"
)

// GenerateHash binds the signed fields together. Any change to the document,
// signer, signing time, mark, or consent flags yields a different digest.
func GenerateHash(sig *entities.DigitalSignature) string {
	ts := ""
	if sig.SignatureData.Timestamp.Valid {
		ts = sig.SignatureData.Timestamp.Time.UTC().Format(time.RFC3339Nano)
	}
	fields := []string{
		sig.DocumentID,
		sig.SignerKey(),
		ts,
		sig.SignatureData.SignatureImage,
		sig.SignatureData.TypedSignature,
		strconv.FormatBool(sig.IntentToSign.Given),
		strconv.FormatBool(sig.ConsentToElectronicBusiness.Given),
	}
	return crypto.SHA256Hex([]byte(strings.Join(fields, "|")))
}

// VerifySignatureHash recomputes the digest and compares it with the stored one
func VerifySignatureHash(sig *entities.DigitalSignature) bool {
	if sig.SignatureHash == "" {
		return false
	}
	return crypto.EqualHex(GenerateHash(sig), sig.SignatureHash)
}

// VerifyLegalCompliance evaluates the ESIGN/UETA gates for one entry
func VerifyLegalCompliance(sig *entities.DigitalSignature) entities.ComplianceChecks {
	checks := entities.ComplianceChecks{
		IntentToSign:                sig.IntentToSign.Given,
		ConsentToElectronicBusiness: sig.ConsentToElectronicBusiness.Given,
		IdentityVerified:            sig.SignatureAssociation.IdentityVerified,
		SignatureValid:              VerifySignatureHash(sig),
	}
	checks.IsCompliant = checks.IntentToSign && checks.ConsentToElectronicBusiness &&
		checks.IdentityVerified && checks.SignatureValid
	return checks
}
