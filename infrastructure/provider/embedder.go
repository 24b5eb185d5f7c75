package provider

import (
	"context"

	"github.com/helixml/pagevec/domain/search"
)

// SearchEmbedder adapts a provider Embedder to search.Embedder.
type SearchEmbedder struct {
	inner Embedder
}

// NewSearchEmbedder wraps inner.
func NewSearchEmbedder(inner Embedder) *SearchEmbedder {
	return &SearchEmbedder{inner: inner}
}

// Embed returns one vector per text, in order.
func (e *SearchEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := e.inner.Embed(ctx, NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	return resp.Embeddings(), nil
}

var _ search.Embedder = (*SearchEmbedder)(nil)
