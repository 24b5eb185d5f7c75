package page

import (
	"context"

	"github.com/helixml/pagevec/domain/repository"
)

// Store defines durable keyed storage for pages with upsert semantics.
type Store interface {
	// Init creates the schema if absent. Calling it again is a no-op.
	Init(ctx context.Context) error

	// Upsert creates or updates the page keyed by URL in one transaction
	// and returns the persisted page.
	Upsert(ctx context.Context, u Upsert) (Page, error)

	// Get returns the page with the given ID.
	Get(ctx context.Context, id int64) (Page, error)

	// FindByURL returns the page with the given URL.
	FindByURL(ctx context.Context, url string) (Page, error)

	// List returns pages matching the options, newest first by default.
	List(ctx context.Context, options ...repository.Option) ([]Page, error)

	// Count returns the number of stored pages.
	Count(ctx context.Context, options ...repository.Option) (int64, error)

	// Dimension returns the fixed embedding dimension of the store.
	Dimension() int
}

// WithURL filters by the "url" column.
func WithURL(url string) repository.Option {
	return repository.WithCondition("url", url)
}

// WithNewestFirst orders by creation time, newest first, breaking ties by ID.
func WithNewestFirst() []repository.Option {
	return []repository.Option{
		repository.WithOrderDesc("created_at"),
		repository.WithOrderDesc("id"),
	}
}
