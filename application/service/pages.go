package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/repository"
)

// Pages provides page storage and lookup without embedding.
type Pages struct {
	store   page.Store
	timeout time.Duration
	closed  *atomic.Bool
	logger  *slog.Logger
}

// NewPages creates a new Pages service.
func NewPages(store page.Store, timeout time.Duration, closed *atomic.Bool, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{store: store, timeout: timeout, closed: closed, logger: logger}
}

// Init creates the page schema if absent.
func (s *Pages) Init(ctx context.Context) error {
	if s.isClosed() {
		return ErrClientClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.Init(ctx)
}

// Save upserts a page without computing an embedding. An embedding stored
// by an earlier call is kept.
func (s *Pages) Save(ctx context.Context, url, title, content string, metadata page.Metadata) (page.Page, error) {
	if s.isClosed() {
		return page.Page{}, ErrClientClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.store.Upsert(ctx, page.Upsert{URL: url, Title: title, Content: content, Metadata: metadata})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save page", slog.String("url", url), slog.Any("error", err))
		return page.Page{}, err
	}
	s.logger.InfoContext(ctx, "saved page", slog.Int64("id", p.ID()), slog.String("url", p.URL()))
	return p, nil
}

// Get returns the page with the given ID.
func (s *Pages) Get(ctx context.Context, id int64) (page.Page, error) {
	if s.isClosed() {
		return page.Page{}, ErrClientClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.Get(ctx, id)
}

// FindByURL returns the page stored under url.
func (s *Pages) FindByURL(ctx context.Context, url string) (page.Page, error) {
	if s.isClosed() {
		return page.Page{}, ErrClientClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.FindByURL(ctx, url)
}

// List returns up to limit pages, newest first, skipping offset pages.
// A limit below 1 returns every page.
func (s *Pages) List(ctx context.Context, limit, offset int) ([]page.Page, error) {
	if s.isClosed() {
		return nil, ErrClientClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var opts []repository.Option
	if limit > 0 {
		opts = append(opts, repository.WithLimit(limit))
	}
	if offset > 0 {
		opts = append(opts, repository.WithOffset(offset))
	}
	return s.store.List(ctx, opts...)
}

// Count returns the number of stored pages.
func (s *Pages) Count(ctx context.Context) (int64, error) {
	if s.isClosed() {
		return 0, ErrClientClosed
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.Count(ctx)
}

func (s *Pages) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Pages) isClosed() bool {
	return s.closed != nil && s.closed.Load()
}
