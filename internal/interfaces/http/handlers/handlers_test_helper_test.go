package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"esign.backend/internal/domain/entities"
	"esign.backend/internal/domain/services"
	"esign.backend/internal/infrastructure/documents"
	"esign.backend/internal/infrastructure/models"
	"esign.backend/internal/infrastructure/repositories"
	"esign.backend/internal/interfaces/http/middleware"
	"esign.backend/internal/usecases"
)

var handlerNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, db.AutoMigrate(append(models.Owned(), &models.GeneratedDocument{})...), "migrate sqlite")
	return db
}

type stubFetcher struct {
	content []byte
}

func (s stubFetcher) FetchDocumentBytes(context.Context, string) ([]byte, error) {
	return s.content, nil
}

type stubMarker struct {
	last services.MarkRequest
}

func (s *stubMarker) MarkDocument(_ context.Context, req services.MarkRequest) (*services.MarkResult, error) {
	s.last = req
	signed := append([]byte("%PDF-1.7 signed "), req.Source...)
	return &services.MarkResult{
		Content:       signed,
		OriginalSize:  len(req.Source),
		SignedSize:    len(signed),
		Placement:     entities.Coordinates{X: 382, Y: 612, Width: 180, Height: 60, Page: 1},
		WatermarkText: "ELECTRONICALLY SIGNED " + req.SignedAt.UTC().Format(time.RFC3339),
	}, nil
}

type noopNotifier struct{}

func (noopNotifier) SendSignatureRequest(context.Context, entities.SignatureNotice) error { return nil }
func (noopNotifier) SendCompletionNotice(context.Context, entities.SignatureNotice) error { return nil }

func newSignatureUsecase(db *gorm.DB, marker services.DocumentMarker) *usecases.SignatureUsecase {
	source := documents.NewSource(documents.NewGormResolver(db), stubFetcher{content: []byte("%PDF-1.7 original")})
	return usecases.NewSignatureUsecase(
		repositories.NewSignatureRepository(db),
		repositories.NewUnitOfWork(db),
		source,
		noopNotifier{},
		marker,
		nil,
		7*24*time.Hour,
		"",
	).WithClock(func() time.Time { return handlerNow }).WithDispatcher(func(fn func()) { fn() })
}

// withIdentity stands in for the auth middlewares
func withIdentity(identity *entities.ApiKeyIdentity, staff *entities.StaffIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity != nil {
			c.Set(middleware.ApiKeyIdentityKey, identity)
		}
		if staff != nil {
			c.Set(middleware.StaffIdentityKey, staff)
		}
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "handler-test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
