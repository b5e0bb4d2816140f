package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"esign.backend/internal/domain/entities"
)

// WebhookSender posts notices as JSON to the mail service
type WebhookSender struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	Kind   string                   `json:"kind"`
	Notice entities.SignatureNotice `json:"notice"`
}

func NewWebhookSender(url string, client *http.Client) *WebhookSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSender{url: url, client: client}
}

func (s *WebhookSender) SendSignatureRequest(ctx context.Context, notice entities.SignatureNotice) error {
	return s.post(ctx, KindSignatureRequest, notice)
}

func (s *WebhookSender) SendCompletionNotice(ctx context.Context, notice entities.SignatureNotice) error {
	return s.post(ctx, KindCompletion, notice)
}

func (s *WebhookSender) post(ctx context.Context, kind string, notice entities.SignatureNotice) error {
	body, err := json.Marshal(webhookPayload{Kind: kind, Notice: notice})
	if err != nil {
		return fmt.Errorf("encode %s notice: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s notice: %w", kind, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}
	return nil
}
