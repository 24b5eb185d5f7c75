// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/search"
)

// Index embeds page content and finds the pages nearest to a query.
type Index struct {
	store    page.Store
	vectors  search.VectorStore
	embedder search.Embedder
	timeout  time.Duration
	closed   *atomic.Bool
	logger   *slog.Logger
}

// NewIndex creates a new Index. A zero timeout leaves deadlines to the caller.
func NewIndex(
	store page.Store,
	vectors search.VectorStore,
	embedder search.Embedder,
	timeout time.Duration,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		timeout:  timeout,
		closed:   closed,
		logger:   logger,
	}
}

// Dimension returns the embedding width of the underlying store.
func (s *Index) Dimension() int { return s.store.Dimension() }

// Embed converts text into a vector with a single provider call. A failed
// call, an empty answer or a vector of the wrong width is a provider error.
func (s *Index) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.isClosed() {
		return nil, ErrClientClosed
	}
	return s.embed(ctx, "embed", excerpt(text), text)
}

func (s *Index) embed(ctx context.Context, op, key, text string) ([]float64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, page.NewProviderError(op, key, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, page.NewProviderError(op, key, ErrEmptyEmbedding)
	}
	vector := vectors[0]
	if len(vector) != s.store.Dimension() {
		return nil, page.NewProviderError(op, key, &page.DimensionError{
			Expected: s.store.Dimension(),
			Actual:   len(vector),
		})
	}

	s.logger.DebugContext(ctx, "embedded text",
		slog.String("op", op),
		slog.Int("chars", len(text)),
		slog.Duration("duration", time.Since(start)),
	)
	return vector, nil
}

// StoreWithEmbedding embeds content and upserts the page with the vector.
// When embedding fails nothing is written.
func (s *Index) StoreWithEmbedding(ctx context.Context, url, title, content string, metadata page.Metadata) (page.Page, error) {
	if s.isClosed() {
		return page.Page{}, ErrClientClosed
	}

	u := page.Upsert{URL: url, Title: title, Content: content, Metadata: metadata}.Normalized()
	if err := u.Validate(s.store.Dimension()); err != nil {
		return page.Page{}, err
	}

	s.logger.InfoContext(ctx, "embedding page content", slog.String("url", u.URL))
	vector, err := s.embed(ctx, "store", u.URL, u.Content)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to embed page", slog.String("url", u.URL), slog.Any("error", err))
		return page.Page{}, err
	}
	u.Embedding = vector

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.store.Upsert(ctx, u)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store page", slog.String("url", u.URL), slog.Any("error", err))
		return page.Page{}, err
	}

	s.logger.InfoContext(ctx, "stored page", slog.Int64("id", p.ID()), slog.String("url", p.URL()))
	return p, nil
}

// Search embeds the query and returns at most limit pages ordered by
// ascending cosine distance, ties broken by ascending ID. A failed embed is
// an error. A failed ranking scan yields a degraded, empty outcome and a nil
// error, except when stored vectors have the wrong width, which is a storage
// error.
func (s *Index) Search(ctx context.Context, query string, limit int) (search.Outcome, error) {
	if s.isClosed() {
		return search.Outcome{}, ErrClientClosed
	}
	if limit < 1 {
		return search.Outcome{}, page.NewValidationError("search", excerpt(query), fmt.Errorf("%w: got %d", page.ErrInvalidLimit, limit))
	}

	s.logger.InfoContext(ctx, "searching pages", slog.String("query", excerpt(query)), slog.Int("limit", limit))
	vector, err := s.embed(ctx, "search", excerpt(query), query)
	if err != nil {
		return search.Outcome{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	matches, err := s.vectors.Nearest(ctx, vector, limit)
	if err != nil {
		if page.IsDimensionMismatch(err) {
			return search.Outcome{}, page.NewStorageError("search", excerpt(query), err)
		}
		s.logger.WarnContext(ctx, "vector search failed, returning no results",
			slog.String("query", excerpt(query)),
			slog.Any("error", err),
		)
		return search.NewDegradedOutcome(page.NewStorageError("search", excerpt(query), err)), nil
	}

	s.logger.InfoContext(ctx, "search complete", slog.Int("results", len(matches)))
	return search.NewOutcome(matches), nil
}

func (s *Index) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Index) isClosed() bool {
	return s.closed != nil && s.closed.Load()
}

// excerpt shortens text for error keys and log attributes.
func excerpt(text string) string {
	const limit = 80
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// IsProviderTimeout reports whether err is a provider error caused by an
// expired deadline.
func IsProviderTimeout(err error) bool {
	return errors.Is(err, page.ErrProvider) && errors.Is(err, context.DeadlineExceeded)
}
