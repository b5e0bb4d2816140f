package usecases_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"esign.backend/internal/domain/entities"
	"esign.backend/internal/usecases"
)

func signedFixture() *entities.DigitalSignature {
	sig := &entities.DigitalSignature{
		DocumentID:                  "deal-1-bos",
		SignerID:                    null.StringFrom("user-1"),
		IntentToSign:                entities.ConsentRecord{Given: true},
		ConsentToElectronicBusiness: entities.ConsentRecord{Given: true},
		SignatureAssociation:        entities.SignatureAssociation{IdentityVerified: true},
		SignatureData: entities.SignatureData{
			Timestamp:      null.TimeFrom(time.Date(2026, 2, 3, 4, 5, 6, 789000, time.UTC)),
			TypedSignature: "Jane Doe",
		},
	}
	sig.SignatureHash = usecases.GenerateHash(sig)
	return sig
}

func TestGenerateHash_Deterministic(t *testing.T) {
	a, b := signedFixture(), signedFixture()
	assert.Equal(t, a.SignatureHash, b.SignatureHash)
	assert.Len(t, a.SignatureHash, 64)

	// timezone of the stored timestamp does not matter
	b.SignatureData.Timestamp = null.TimeFrom(b.SignatureData.Timestamp.Time.In(time.FixedZone("EST", -5*3600)))
	assert.Equal(t, a.SignatureHash, usecases.GenerateHash(b))
}

func TestGenerateHash_SensitiveToEveryBoundField(t *testing.T) {
	mutations := map[string]func(*entities.DigitalSignature){
		"documentId": func(s *entities.DigitalSignature) { s.DocumentID = "deal-2-bos" },
		"signerId":   func(s *entities.DigitalSignature) { s.SignerID = null.StringFrom("user-2") },
		"timestamp": func(s *entities.DigitalSignature) {
			s.SignatureData.Timestamp = null.TimeFrom(s.SignatureData.Timestamp.Time.Add(time.Microsecond))
		},
		"mark":    func(s *entities.DigitalSignature) { s.SignatureData.TypedSignature = "Jane  Doe" },
		"image":   func(s *entities.DigitalSignature) { s.SignatureData.SignatureImage = "iVBOR" },
		"intent":  func(s *entities.DigitalSignature) { s.IntentToSign.Given = false },
		"consent": func(s *entities.DigitalSignature) { s.ConsentToElectronicBusiness.Given = false },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			sig := signedFixture()
			mutate(sig)
			assert.NotEqual(t, sig.SignatureHash, usecases.GenerateHash(sig))
			assert.False(t, usecases.VerifySignatureHash(sig))
		})
	}
}

func TestGenerateHash_KeepsMarkFieldsApart(t *testing.T) {
	a, b := signedFixture(), signedFixture()
	a.SignatureData.SignatureImage, a.SignatureData.TypedSignature = "ab", "c"
	b.SignatureData.SignatureImage, b.SignatureData.TypedSignature = "a", "bc"
	assert.NotEqual(t, usecases.GenerateHash(a), usecases.GenerateHash(b))
}

func TestGenerateHash_IgnoresUnboundFields(t *testing.T) {
	sig := signedFixture()
	sig.SignerName = "Someone Else"
	sig.DocumentURL = "https://elsewhere.example.com"
	sig.Status = entities.SignatureStatusVerified
	assert.True(t, usecases.VerifySignatureHash(sig))
}

func TestVerifyLegalCompliance(t *testing.T) {
	sig := signedFixture()
	checks := usecases.VerifyLegalCompliance(sig)
	assert.True(t, checks.IsCompliant)

	sig.SignatureAssociation.IdentityVerified = false
	checks = usecases.VerifyLegalCompliance(sig)
	assert.False(t, checks.IsCompliant)
	assert.True(t, checks.SignatureValid)

	empty := &entities.DigitalSignature{}
	checks = usecases.VerifyLegalCompliance(empty)
	assert.False(t, checks.SignatureValid)
	assert.False(t, checks.IsCompliant)
}
