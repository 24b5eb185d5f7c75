package search

import "context"

// VectorStore ranks stored page embeddings against a query vector.
type VectorStore interface {
	// Nearest returns at most limit pages with an embedding, ordered by
	// ascending cosine distance to vector and then by ascending page ID.
	Nearest(ctx context.Context, vector []float64, limit int) ([]Match, error)
}
