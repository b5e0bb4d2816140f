// Package notification delivers signer notices to the mail service.
package notification

import (
	"fmt"
	"net/http"

	"esign.backend/internal/config"
	"esign.backend/internal/domain/services"
)

// Notice kinds
const (
	KindSignatureRequest = "signature_request"
	KindCompletion       = "completion"
)

// New builds the sender for the configured mode
func New(cfg config.NotificationConfig) (services.NotificationSender, error) {
	switch cfg.Mode {
	case "", "log":
		return NewLogSender(), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("NOTIFICATION_WEBHOOK_URL is required for webhook notifications")
		}
		return NewWebhookSender(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}), nil
	}
	return nil, fmt.Errorf("unknown notification mode %q", cfg.Mode)
}
