package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"esign.backend/internal/config"
	"esign.backend/internal/domain/entities"
	"esign.backend/pkg/logger"
)

func sampleNotice() entities.SignatureNotice {
	return entities.SignatureNotice{
		Email:        "jane@example.com",
		SignatureID:  "sig_1700000000000_abcdefgh",
		DocumentType: entities.DocumentTypeWholesaleBOS,
		SignerName:   "Jane Doe",
		SigningURL:   "https://portal.example.com/sign/sig_1700000000000_abcdefgh",
	}
}

func TestNew_Modes(t *testing.T) {
	s, err := New(config.NotificationConfig{})
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	_, err = New(config.NotificationConfig{Mode: "webhook"})
	assert.Error(t, err)

	s, err = New(config.NotificationConfig{Mode: "webhook", WebhookURL: "http://mail.local/hook", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &WebhookSender{}, s)

	_, err = New(config.NotificationConfig{Mode: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestLogSender_WritesEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })

	s := NewLogSender()
	require.NoError(t, s.SendSignatureRequest(context.Background(), sampleNotice()))
	require.NoError(t, s.SendCompletionNotice(context.Background(), sampleNotice()))

	entries := logs.FilterMessage("Signer notification").All()
	require.Len(t, entries, 2)
	assert.Equal(t, KindSignatureRequest, entries[0].ContextMap()["kind"])
	assert.Equal(t, KindCompletion, entries[1].ContextMap()["kind"])
}

func TestWebhookSender_PostsJSON(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, srv.Client())
	require.NoError(t, s.SendCompletionNotice(context.Background(), sampleNotice()))
	assert.Equal(t, KindCompletion, got.Kind)
	assert.Equal(t, "Jane Doe", got.Notice.SignerName)
}

func TestWebhookSender_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	s := NewWebhookSender(srv.URL, nil)
	err := s.SendSignatureRequest(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	srv.Close()
	assert.Error(t, s.SendSignatureRequest(context.Background(), sampleNotice()))

	bad := NewWebhookSender("://bad-url", nil)
	assert.Error(t, bad.SendCompletionNotice(context.Background(), sampleNotice()))
}
