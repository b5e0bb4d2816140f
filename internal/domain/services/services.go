// Package services declares the collaborators the signature engine consumes.
package services

import (
	"context"
	"time"

	"esign.backend/internal/domain/entities"
)

// DocumentSource resolves generated documents and fetches their bytes
type DocumentSource interface {
	ResolveDocument(ctx context.Context, documentType entities.DocumentType, documentID string) (*entities.DocumentInfo, error)
	FetchDocumentBytes(ctx context.Context, url string) ([]byte, error)
}

// NotificationSender delivers signer-facing notices. Calls are best-effort.
type NotificationSender interface {
	SendSignatureRequest(ctx context.Context, notice entities.SignatureNotice) error
	SendCompletionNotice(ctx context.Context, notice entities.SignatureNotice) error
}

// ArtifactStore keeps signed document bytes and returns a retrievable URL
type ArtifactStore interface {
	Put(ctx context.Context, key string, content []byte) (string, error)
}

// RateLimiter admits or rejects one request for key
type RateLimiter interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
}

// DocumentMarker burns a signature mark and watermark into PDF bytes
type DocumentMarker interface {
	MarkDocument(ctx context.Context, req MarkRequest) (*MarkResult, error)
}

// MarkRequest describes one marking job
type MarkRequest struct {
	Source         []byte
	DocumentType   entities.DocumentType
	SignatureImage string
	TypedSignature string
	Override       *PlacementOverride
	SignedAt       time.Time
}

// PlacementOverride deep-merges over the per-type default box; nil fields keep the default
type PlacementOverride struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Page   *int     `json:"page"`
}

// MarkResult is the marked document plus size metrics
type MarkResult struct {
	Content       []byte
	OriginalSize  int
	SignedSize    int
	Placement     entities.Coordinates
	WatermarkText string
}
