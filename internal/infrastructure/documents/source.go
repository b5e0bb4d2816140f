package documents

import (
	"context"

	"esign.backend/internal/domain/entities"
)

type resolver interface {
	ResolveDocument(ctx context.Context, documentType entities.DocumentType, documentID string) (*entities.DocumentInfo, error)
}

type fetcher interface {
	FetchDocumentBytes(ctx context.Context, url string) ([]byte, error)
}

// Source joins a resolver and a fetcher into one document source
type Source struct {
	resolver
	fetcher
}

func NewSource(r resolver, f fetcher) *Source {
	return &Source{resolver: r, fetcher: f}
}
