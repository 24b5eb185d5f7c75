package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/helixml/pagevec"
	"github.com/helixml/pagevec/infrastructure/provider"
	"github.com/helixml/pagevec/internal/config"
	"github.com/helixml/pagevec/internal/log"
)

// errNoEmbeddingEndpoint is returned when neither an embedding endpoint nor
// OPENAI_API_KEY is configured.
var errNoEmbeddingEndpoint = fmt.Errorf("%w: set EMBEDDING_ENDPOINT_API_KEY or OPENAI_API_KEY", pagevec.ErrNoProvider)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	envFile    string
	configFile string
	output     string
}

// loadConfig loads configuration from the YAML file, .env file and
// environment variables.
func (g *globalOptions) loadConfig() (config.AppConfig, error) {
	cfg, err := config.LoadConfig(g.envFile, g.configFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openClient loads configuration, configures logging to stderr and opens a
// client. Callers close the client.
func (g *globalOptions) openClient(opts ...config.AppConfigOption) (*pagevec.Client, config.AppConfig, *slog.Logger, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, config.AppConfig{}, nil, err
	}
	cfg = cfg.Apply(opts...)

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, config.AppConfig{}, nil, fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)

	clientOpts, err := clientOptions(cfg, logger)
	if err != nil {
		return nil, config.AppConfig{}, nil, err
	}

	client, err := pagevec.New(clientOpts...)
	if err != nil {
		return nil, config.AppConfig{}, nil, fmt.Errorf("create pagevec client: %w", err)
	}
	return client, cfg, logger, nil
}

// clientOptions returns the pagevec.Option slice derived from AppConfig:
// database, operation limits and the AI providers.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) ([]pagevec.Option, error) {
	opts := []pagevec.Option{
		pagevec.WithDatabaseURL(cfg.DBURL()),
		pagevec.WithEmbeddingDimension(cfg.EmbeddingDimension()),
		pagevec.WithOperationTimeout(cfg.OperationTimeout()),
		pagevec.WithIngestWorkers(cfg.IngestWorkers()),
		pagevec.WithLogger(logger),
	}

	transport, err := cachingTransport(cfg, logger)
	if err != nil {
		return nil, err
	}

	emb := cfg.EmbeddingEndpoint()
	if !emb.IsConfigured() {
		return nil, errNoEmbeddingEndpoint
	}
	embedder := provider.NewOpenAIProvider(openAIConfig(emb, transport), provider.WithEmbeddingModel(emb.Model()))
	opts = append(opts, pagevec.WithEmbeddingProvider(embedder), pagevec.WithCloser(embedder))

	if txt := cfg.EnrichmentEndpoint(); txt.IsConfigured() {
		generator := provider.NewOpenAIProvider(openAIConfig(txt, transport), provider.WithChatModel(txt.Model()))
		opts = append(opts,
			pagevec.WithTextProvider(generator),
			pagevec.WithSummaryMaxTokens(txt.MaxTokens()),
			pagevec.WithCloser(generator),
		)
	}

	return opts, nil
}

// openAIConfig maps an endpoint onto the OpenAI provider configuration.
func openAIConfig(e config.Endpoint, transport http.RoundTripper) provider.OpenAIConfig {
	return provider.OpenAIConfig{
		APIKey:        e.APIKey(),
		BaseURL:       e.BaseURL(),
		Timeout:       e.Timeout(),
		MaxRetries:    e.MaxRetries(),
		InitialDelay:  e.InitialDelay(),
		BackoffFactor: e.BackoffFactor(),
		Transport:     transport,
	}
}

// cachingTransport returns a disk-backed response cache when HTTP_CACHE_DIR
// is set, or nil to use the default transport.
func cachingTransport(cfg config.AppConfig, logger *slog.Logger) (http.RoundTripper, error) {
	dir := cfg.HTTPCacheDir()
	if dir == "" {
		return nil, nil
	}
	t, err := provider.NewCachingTransport(dir, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("http cache: %w", err)
	}
	return t, nil
}

// closeClient closes the client and logs any failure.
func closeClient(client io.Closer, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close pagevec client", slog.Any("error", err))
	}
}
