package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"esign.backend/internal/domain/entities"
	"esign.backend/internal/domain/repositories"
	"esign.backend/internal/domain/services"
	"esign.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock ApiKeyRepository
type MockApiKeyRepository struct {
	mock.Mock
}

func (m *MockApiKeyRepository) Create(ctx context.Context, apiKey *entities.ApiKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *MockApiKeyRepository) FindByKeyHash(ctx context.Context, keyHash string) (*entities.ApiKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ApiKey), args.Error(1)
}

func (m *MockApiKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ApiKey), args.Error(1)
}

func (m *MockApiKeyRepository) List(ctx context.Context, filter repositories.ApiKeyFilter, pagination utils.PaginationParams) ([]*entities.ApiKey, int64, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.ApiKey), args.Get(1).(int64), args.Error(2)
}

func (m *MockApiKeyRepository) Update(ctx context.Context, apiKey *entities.ApiKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *MockApiKeyRepository) ReplaceKeyHash(ctx context.Context, id uuid.UUID, keyHash, keyPrefix string) error {
	args := m.Called(ctx, id, keyHash, keyPrefix)
	return args.Error(0)
}

func (m *MockApiKeyRepository) IncrementUsage(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockApiKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock SignatureRepository
type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) Create(ctx context.Context, sig *entities.DigitalSignature) error {
	args := m.Called(ctx, sig)
	return args.Error(0)
}

func (m *MockSignatureRepository) GetBySignatureID(ctx context.Context, signatureID string) (*entities.DigitalSignature, error) {
	args := m.Called(ctx, signatureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DigitalSignature), args.Error(1)
}

func (m *MockSignatureRepository) ListByDocument(ctx context.Context, documentID string, documentType entities.DocumentType) ([]*entities.DigitalSignature, error) {
	args := m.Called(ctx, documentID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DigitalSignature), args.Error(1)
}

func (m *MockSignatureRepository) GrantConsent(ctx context.Context, id uuid.UUID, field repositories.ConsentField, record entities.ConsentRecord) (bool, error) {
	args := m.Called(ctx, id, field, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockSignatureRepository) CompleteSignature(ctx context.Context, sig *entities.DigitalSignature) (bool, error) {
	args := m.Called(ctx, sig)
	return args.Bool(0), args.Error(1)
}

func (m *MockSignatureRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entities.SignatureStatus, to entities.SignatureStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockSignatureRepository) UpdateDocumentIntegrity(ctx context.Context, id uuid.UUID, documentHash string, integrity entities.DocumentIntegrity) error {
	args := m.Called(ctx, id, documentHash, integrity)
	return args.Error(0)
}

func (m *MockSignatureRepository) AppendAuditEvent(ctx context.Context, event *entities.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSignatureRepository) ListAuditEvents(ctx context.Context, signatureID uuid.UUID) ([]entities.AuditEvent, error) {
	args := m.Called(ctx, signatureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.AuditEvent), args.Error(1)
}

// Mock DocumentSource
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) ResolveDocument(ctx context.Context, documentType entities.DocumentType, documentID string) (*entities.DocumentInfo, error) {
	args := m.Called(ctx, documentType, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DocumentInfo), args.Error(1)
}

func (m *MockDocumentSource) FetchDocumentBytes(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Mock NotificationSender
type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) SendSignatureRequest(ctx context.Context, notice entities.SignatureNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotificationSender) SendCompletionNotice(ctx context.Context, notice entities.SignatureNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// Mock DocumentMarker
type MockDocumentMarker struct {
	mock.Mock
}

func (m *MockDocumentMarker) MarkDocument(ctx context.Context, req services.MarkRequest) (*services.MarkResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MarkResult), args.Error(1)
}

// Mock ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, key string, content []byte) (string, error) {
	args := m.Called(ctx, key, content)
	return args.String(0), args.Error(1)
}
