package pagevec

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/helixml/pagevec/infrastructure/provider"
	"github.com/helixml/pagevec/internal/config"
)

// clientConfig holds configuration for Client construction.
// Defaults come from internal/config.
type clientConfig struct {
	dbURL             string
	dimension         int
	timeout           time.Duration
	ingestWorkers     int
	summaryMaxTokens  int
	embeddingProvider provider.Embedder
	textProvider      provider.TextGenerator
	logger            *slog.Logger
	closers           []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dimension:        config.DefaultEmbeddingDimension,
		timeout:          config.DefaultOperationTimeout,
		ingestWorkers:    config.DefaultIngestWorkers,
		summaryMaxTokens: config.DefaultEndpointMaxTokens,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores pages in the SQLite file at path. Use ":memory:" for a
// private in-memory database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres stores pages in PostgreSQL with the pgvector extension.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDatabaseURL selects the backend from a sqlite:/// or postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = strings.TrimSpace(url)
	}
}

// WithEmbeddingDimension sets the fixed width of stored embeddings.
// Defaults to 1536. Values <= 0 are ignored.
func WithEmbeddingDimension(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.dimension = n
		}
	}
}

// WithOperationTimeout bounds every provider call and storage transaction.
// Zero leaves deadlines to the caller's context.
func WithOperationTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithIngestWorkers sets how many documents a batch ingest processes at
// once. Values <= 0 are ignored.
func WithIngestWorkers(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.ingestWorkers = n
		}
	}
}

// WithSummaryMaxTokens sets the completion limit for page summaries.
func WithSummaryMaxTokens(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.summaryMaxTokens = n
		}
	}
}

// WithOpenAI uses OpenAI for both embeddings and summaries.
func WithOpenAI(apiKey string) Option {
	return WithOpenAIConfig(provider.OpenAIConfig{APIKey: apiKey})
}

// WithOpenAIConfig uses one OpenAI-compatible endpoint for both embeddings
// and summaries.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		p := provider.NewOpenAIProvider(cfg)
		c.embeddingProvider = p
		c.textProvider = p
		c.closers = append(c.closers, p)
	}
}

// WithEmbeddingProvider sets the provider that embeds page content and
// search queries.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithTextProvider sets the provider that summarizes ingested pages.
// Without one, ingested pages carry an empty ai_parsed object.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
