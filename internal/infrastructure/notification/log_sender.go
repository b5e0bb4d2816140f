package notification

import (
	"context"

	"go.uber.org/zap"

	"esign.backend/internal/domain/entities"
	"esign.backend/pkg/logger"
)

// LogSender writes notices to the log instead of delivering them
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendSignatureRequest(ctx context.Context, notice entities.SignatureNotice) error {
	s.log(ctx, KindSignatureRequest, notice)
	return nil
}

func (s *LogSender) SendCompletionNotice(ctx context.Context, notice entities.SignatureNotice) error {
	s.log(ctx, KindCompletion, notice)
	return nil
}

func (s *LogSender) log(ctx context.Context, kind string, notice entities.SignatureNotice) {
	logger.Info(ctx, "Signer notification",
		zap.String("kind", kind),
		zap.String("signature_id", notice.SignatureID),
		zap.String("document_type", string(notice.DocumentType)),
		zap.String("email", notice.Email),
		zap.String("signing_url", notice.SigningURL),
	)
}
