// Package pagevec stores scraped web pages with an embedding of their
// content and finds the pages nearest to a text query.
//
// Basic usage:
//
//	client, err := pagevec.New(
//	    pagevec.WithSQLite(".pagevec/pagevec.db"),
//	    pagevec.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Embed and store a page, keyed by URL
//	p, err := client.Index.StoreWithEmbedding(ctx, "https://example.com/cats",
//	    "Cats", "cats are great pets", nil)
//
//	// Nearest-neighbor search
//	outcome, err := client.Index.Search(ctx, "pets", 5)
//	for _, m := range outcome.Matches() {
//	    fmt.Printf("%.1f%% %s\n", m.SimilarityPercent(), m.Page().URL())
//	}
package pagevec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helixml/pagevec/application/service"
	"github.com/helixml/pagevec/infrastructure/enricher"
	"github.com/helixml/pagevec/infrastructure/persistence"
	"github.com/helixml/pagevec/infrastructure/provider"
	"github.com/helixml/pagevec/internal/database"
)

// Errors returned by New and Close.
var (
	ErrNoDatabase   = errors.New("pagevec: no database configured")
	ErrNoProvider   = errors.New("pagevec: no embedding provider configured")
	ErrClientClosed = service.ErrClientClosed
)

const (
	poolHeadroom    = 4
	poolMaxLifetime = 30 * time.Minute
)

// Client is the main entry point for the pagevec library.
//
//	client.Index.StoreWithEmbedding(ctx, url, title, content, metadata)
//	client.Index.Search(ctx, "query", 5)
//	client.Pages.List(ctx, 10, 0)
//	client.Ingest.IngestBatch(ctx, docs)
type Client struct {
	Pages  *service.Pages
	Index  *service.Index
	Ingest *service.Ingest

	db        database.Database
	closers   []io.Closer
	logger    *slog.Logger
	dimension int
	closed    atomic.Bool
	mu        sync.Mutex
}

// New opens the database, creates the page schema if absent and wires the
// services. The embedding provider is required; the text provider is not.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}
	if cfg.embeddingProvider == nil {
		return nil, ErrNoProvider
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.dbURL, database.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each ingest worker holds at most one connection at a time.
	if err := db.ConfigurePool(cfg.ingestWorkers+poolHeadroom, cfg.ingestWorkers, poolMaxLifetime); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("configure pool: %w", err), errClose)
	}

	store := persistence.NewPageStore(db, cfg.dimension, persistence.WithPageLogger(logger))
	if err := store.Init(ctx); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("init schema: %w", err), errClose)
	}
	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	client := &Client{
		db:        db,
		closers:   cfg.closers,
		logger:    logger,
		dimension: cfg.dimension,
	}

	vectors := persistence.NewVectorStore(db, cfg.dimension, logger)
	embedder := provider.NewSearchEmbedder(cfg.embeddingProvider)

	var summarizer service.Summarizer
	if cfg.textProvider != nil {
		summarizer = enricher.NewSummarizer(cfg.textProvider, logger).
			WithMaxTokens(cfg.summaryMaxTokens)
	}

	client.Pages = service.NewPages(store, cfg.timeout, &client.closed, logger)
	client.Index = service.NewIndex(store, vectors, embedder, cfg.timeout, &client.closed, logger)
	client.Ingest = service.NewIngest(client.Index, summarizer, enricher.ExtractText, cfg.ingestWorkers, logger)

	logger.Debug("pagevec client ready",
		slog.Int("dimension", cfg.dimension),
		slog.Bool("postgres", db.IsPostgres()),
		slog.Bool("summarizer", summarizer != nil),
	)
	return client, nil
}

// Close releases the database and registered resources. Operations on a
// closed client fail with ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Debug("pagevec client closed")
	return nil
}

// Dimension returns the fixed embedding width of the store.
func (c *Client) Dimension() int {
	return c.dimension
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
