package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"esign.backend/internal/domain/entities"
	domainerrors "esign.backend/internal/domain/errors"
)

type stubAuthenticator struct {
	keys  map[string]*entities.ApiKeyIdentity
	calls int
}

func (s *stubAuthenticator) Authenticate(_ context.Context, rawKey string) (*entities.ApiKeyIdentity, error) {
	s.calls++
	if rawKey == "" {
		return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyRequired, "API key is required")
	}
	identity, ok := s.keys[rawKey]
	if !ok {
		return nil, domainerrors.Unauthenticated(domainerrors.CodeAPIKeyInvalid, "invalid API key")
	}
	return identity, nil
}

func newStubAuthenticator() *stubAuthenticator {
	return &stubAuthenticator{keys: map[string]*entities.ApiKeyIdentity{
		"esk_dealer": {
			KeyID:       uuid.New(),
			Name:        "Acme Motors",
			Type:        entities.ApiKeyTypeDealer,
			Permissions: entities.Permissions{CreateSignatures: true},
		},
		"esk_viewer": {
			KeyID:       uuid.New(),
			Name:        "Viewer",
			Type:        entities.ApiKeyTypeCustomer,
			Permissions: entities.Permissions{ViewDocuments: true},
		},
		"esk_system": {
			KeyID: uuid.New(),
			Name:  "Deal Service",
			Type:  entities.ApiKeyTypeSystem,
		},
	}}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["code"]
}
