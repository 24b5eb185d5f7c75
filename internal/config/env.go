package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.pagevec
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL. postgres:// selects pgvector.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/pagevec.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// EmbeddingDimension is the width of stored embeddings.
	// Env: EMBEDDING_DIMENSION (default: 1536)
	EmbeddingDimension int `envconfig:"EMBEDDING_DIMENSION" default:"1536"`

	// OperationTimeout is the per-call deadline in seconds.
	// Env: OPERATION_TIMEOUT (default: 60)
	OperationTimeout float64 `envconfig:"OPERATION_TIMEOUT" default:"60"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 5)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"5"`

	// IngestWorkers is the batch ingest concurrency.
	// Env: INGEST_WORKERS (default: 4)
	IngestWorkers int `envconfig:"INGEST_WORKERS" default:"4"`

	// OpenAIAPIKey is used by any endpoint without its own key.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// EmbeddingEndpoint configures the embedding AI service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// EnrichmentEndpoint configures the summarizer AI service.
	EnrichmentEndpoint EndpointEnv `envconfig:"ENRICHMENT_ENDPOINT"`

	// HTTPCacheDir is the directory for caching HTTP responses to disk.
	// When set, POST request/response pairs are cached to avoid repeated API calls.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
// Model and MaxRetries have per-endpoint defaults, so they stay unset
// unless the variable is present.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 0 for embedding, 3 for enrichment)
	MaxRetries *int `envconfig:"MAX_RETRIES"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxTokens is the completion token limit.
	// Env: *_MAX_TOKENS (default: 2048)
	MaxTokens int `envconfig:"MAX_TOKENS" default:"2048"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "PAGEVEC" would require PAGEVEC_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}

	cfg = applyOption(cfg, WithEmbeddingDimension(e.EmbeddingDimension))
	cfg = applyOption(cfg, WithOperationTimeout(seconds(e.OperationTimeout)))
	cfg = applyOption(cfg, WithSearchLimit(e.SearchLimit))
	cfg = applyOption(cfg, WithIngestWorkers(e.IngestWorkers))

	cfg = applyOption(cfg, WithEmbeddingEndpoint(
		e.EmbeddingEndpoint.ToEndpoint(cfg.EmbeddingEndpoint(), e.OpenAIAPIKey),
	))
	cfg = applyOption(cfg, WithEnrichmentEndpoint(
		e.EnrichmentEndpoint.ToEndpoint(cfg.EnrichmentEndpoint(), e.OpenAIAPIKey),
	))

	if e.HTTPCacheDir != "" {
		cfg = applyOption(cfg, WithHTTPCacheDir(e.HTTPCacheDir))
	}

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToEndpoint layers the environment values over base. fallbackKey is used
// when no endpoint-specific key is set.
func (e EndpointEnv) ToEndpoint(base Endpoint, fallbackKey string) Endpoint {
	opts := []EndpointOption{
		WithTimeout(seconds(e.Timeout)),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
	}
	if e.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(e.MaxTokens))
	}
	if e.MaxRetries != nil {
		opts = append(opts, WithMaxRetries(*e.MaxRetries))
	}
	if e.Model != "" {
		opts = append(opts, WithModel(e.Model))
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	switch {
	case e.APIKey != "":
		opts = append(opts, WithAPIKey(e.APIKey))
	case fallbackKey != "":
		opts = append(opts, WithAPIKey(fallbackKey))
	}

	for _, opt := range opts {
		opt(&base)
	}
	return base
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
