package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
	domainRepos "esign.backend/internal/domain/repositories"
)

func TestSignatureRepository_CreateAndGet(t *testing.T) {
	db := newMigratedTestDB(t)
	repo := NewSignatureRepository(db)
	ctx := context.Background()

	keyID := uuid.New()
	sig := &entities.DigitalSignature{
		SignatureID:     "sig_0123456789abcdef0123456789abcdef",
		DocumentID:      "doc-7",
		DocumentType:    entities.DocumentTypeRetailBOS,
		DocumentURL:     "https://docs.example.com/doc-7.pdf",
		SignerType:      entities.SignerTypeDealer,
		SignerID:        null.StringFrom("dealer-42"),
		SignerModel:     entities.SignerModelDealer,
		SignerName:      "Acme Motors",
		SignerEmail:     null.StringFrom("sales@acme.example"),
		SignatureMethod: entities.SignatureMethodAPIKey,
		SignatureData: entities.SignatureData{
			Coordinates: &entities.Coordinates{X: 10, Y: 20, Width: 150, Height: 50, Page: 1},
		},
		Status:        entities.SignatureStatusPending,
		ApiKeyUsed:    uuid.NullUUID{UUID: keyID, Valid: true},
		DisplayFields: map[string]string{"vin": "1HGCM82633A004352"},
	}
	require.NoError(t, repo.Create(ctx, sig))
	require.NoError(t, repo.AppendAuditEvent(ctx, &entities.AuditEvent{
		SignatureID: sig.ID,
		Action:      entities.AuditActionCreated,
		IPAddress:   "10.0.0.1",
		Details:     map[string]string{"apiKey": keyID.String()},
	}))

	got, err := repo.GetBySignatureID(ctx, sig.SignatureID)
	require.NoError(t, err)
	require.Equal(t, sig.ID, got.ID)
	require.Equal(t, "dealer-42", got.SignerKey())
	require.Equal(t, "sales@acme.example", got.SignerEmail.String)
	require.Equal(t, keyID, got.ApiKeyUsed.UUID)
	require.Equal(t, "1HGCM82633A004352", got.DisplayFields["vin"])
	require.NotNil(t, got.SignatureData.Coordinates)
	require.Equal(t, 150.0, got.SignatureData.Coordinates.Width)
	require.Len(t, got.AuditTrail.Events, 1)
	require.Equal(t, entities.AuditActionCreated, got.AuditTrail.Events[0].Action)
	require.Equal(t, keyID.String(), got.AuditTrail.Events[0].Details["apiKey"])
	require.Equal(t, "10.0.0.1", got.AuditTrail.IPAddress)

	_, err = repo.GetBySignatureID(ctx, "sig_missing000000000000")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	dup := *sig
	dup.ID = uuid.Nil
	require.ErrorIs(t, repo.Create(ctx, &dup), domainerrors.ErrAlreadyExists)
}

func TestSignatureRepository_GrantConsentIsSetOnce(t *testing.T) {
	db := newMigratedTestDB(t)
	repo := NewSignatureRepository(db)
	ctx := context.Background()
	sig := seedSignature(t, repo, "sig_consent000000000000001")

	first := time.Now().UTC().Truncate(time.Second)
	applied, err := repo.GrantConsent(ctx, sig.ID, domainRepos.ConsentFieldIntent, entities.ConsentRecord{
		Given: true, Timestamp: null.TimeFrom(first), IPAddress: "1.1.1.1", UserAgent: "ua-1",
	})
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = repo.GrantConsent(ctx, sig.ID, domainRepos.ConsentFieldIntent, entities.ConsentRecord{
		Given: true, Timestamp: null.TimeFrom(first.Add(time.Hour)), IPAddress: "2.2.2.2", UserAgent: "ua-2",
	})
	require.NoError(t, err)
	require.False(t, applied, "second grant must be a no-op")

	got, err := repo.GetBySignatureID(ctx, sig.SignatureID)
	require.NoError(t, err)
	require.True(t, got.IntentToSign.Given)
	require.Equal(t, "1.1.1.1", got.IntentToSign.IPAddress)
	require.True(t, got.IntentToSign.Timestamp.Time.Equal(first))
	require.Equal(t, entities.SignatureStatusPending, got.Status)

	applied, err = repo.GrantConsent(ctx, sig.ID, domainRepos.ConsentFieldElectronicBusiness, entities.ConsentRecord{
		Given: true, Timestamp: null.TimeFrom(first), IPAddress: "1.1.1.1", UserAgent: "ua-1",
	})
	require.NoError(t, err)
	require.True(t, applied)

	got, err = repo.GetBySignatureID(ctx, sig.SignatureID)
	require.NoError(t, err)
	require.Equal(t, entities.SignatureStatusConsentGiven, got.Status)

	_, err = repo.GrantConsent(ctx, sig.ID, domainRepos.ConsentField("bogus"), entities.ConsentRecord{})
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestSignatureRepository_CompleteSignatureGuardsStatus(t *testing.T) {
	db := newMigratedTestDB(t)
	repo := NewSignatureRepository(db)
	ctx := context.Background()
	sig := seedSignature(t, repo, "sig_complete00000000000001")

	signedAt := time.Now().UTC().Truncate(time.Second)
	sig.SignatureData.Timestamp = null.TimeFrom(signedAt)
	sig.SignatureData.TypedSignature = "Jane Doe"
	sig.SignatureHash = "abc123"
	sig.Status = entities.SignatureStatusCompleted
	sig.CompletedAt = null.TimeFrom(signedAt)

	applied, err := repo.CompleteSignature(ctx, sig)
	require.NoError(t, err)
	require.True(t, applied)

	second := *sig
	second.SignatureData.TypedSignature = "Mallory"
	second.SignatureHash = "tampered"
	applied, err = repo.CompleteSignature(ctx, &second)
	require.NoError(t, err)
	require.False(t, applied, "completed rows must not be rewritten")

	got, err := repo.GetBySignatureID(ctx, sig.SignatureID)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", got.SignatureData.TypedSignature)
	require.Equal(t, "abc123", got.SignatureHash)
	require.Equal(t, entities.SignatureStatusCompleted, got.Status)
	require.True(t, got.SignatureData.Timestamp.Valid)
}

func TestSignatureRepository_TransitionStatus(t *testing.T) {
	db := newMigratedTestDB(t)
	repo := NewSignatureRepository(db)
	ctx := context.Background()
	sig := seedSignature(t, repo, "sig_transition000000000001")

	applied, err := repo.TransitionStatus(ctx, sig.ID, []entities.SignatureStatus{entities.SignatureStatusCompleted}, entities.SignatureStatusVerified)
	require.NoError(t, err)
	require.False(t, applied)

	applied, err = repo.TransitionStatus(ctx, sig.ID, []entities.SignatureStatus{entities.SignatureStatusPending}, entities.SignatureStatusRevoked)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = repo.TransitionStatus(ctx, sig.ID, nil, entities.SignatureStatusPending)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestSignatureRepository_UpdateDocumentIntegrityAndList(t *testing.T) {
	db := newMigratedTestDB(t)
	repo := NewSignatureRepository(db)
	ctx := context.Background()
	finance := seedSignature(t, repo, "sig_finance000000000000001")
	client := &entities.DigitalSignature{
		SignatureID:     "sig_client0000000000000001",
		DocumentID:      finance.DocumentID,
		DocumentType:    finance.DocumentType,
		SignerType:      entities.SignerTypeClient,
		SignerName:      "John Client",
		SignatureMethod: entities.SignatureMethodEmailInvitation,
		Status:          entities.SignatureStatusPending,
		CreatedAt:       time.Now().UTC().Add(time.Second),
	}
	require.NoError(t, repo.Create(ctx, client))

	signedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateDocumentIntegrity(ctx, finance.ID, "deadbeef", entities.DocumentIntegrity{
		Flattened:           true,
		WatermarkText:       "ELECTRONICALLY SIGNED",
		SignedTimestamp:     null.TimeFrom(signedAt),
		OriginalDocumentURL: finance.DocumentURL,
		SignedDocumentURL:   "file:///tmp/signed.pdf",
	}))
	require.ErrorIs(t, repo.UpdateDocumentIntegrity(ctx, uuid.New(), "x", entities.DocumentIntegrity{}), domainerrors.ErrNotFound)

	rows, err := repo.ListByDocument(ctx, finance.DocumentID, finance.DocumentType)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "deadbeef", rows[0].SignatureData.DocumentHash)
	require.True(t, rows[0].SignatureData.DocumentIntegrity.Flattened)
	require.Equal(t, entities.SignerTypeClient, rows[1].SignerType)

	rows, err = repo.ListByDocument(ctx, finance.DocumentID, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = repo.ListByDocument(ctx, "other", "")
	require.NoError(t, err)
	require.Empty(t, rows)
}
