package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration file layout. Keys mirror the
// environment variables in lower case.
type FileConfig struct {
	Host               string       `yaml:"host"`
	Port               int          `yaml:"port"`
	DataDir            string       `yaml:"data_dir"`
	DBURL              string       `yaml:"db_url"`
	LogLevel           string       `yaml:"log_level"`
	LogFormat          string       `yaml:"log_format"`
	APIKeys            []string     `yaml:"api_keys"`
	EmbeddingDimension int          `yaml:"embedding_dimension"`
	OperationTimeout   float64      `yaml:"operation_timeout"`
	SearchLimit        int          `yaml:"search_limit"`
	IngestWorkers      int          `yaml:"ingest_workers"`
	HTTPCacheDir       string       `yaml:"http_cache_dir"`
	EmbeddingEndpoint  FileEndpoint `yaml:"embedding_endpoint"`
	EnrichmentEndpoint FileEndpoint `yaml:"enrichment_endpoint"`
}

// FileEndpoint is the YAML layout of an AI endpoint.
type FileEndpoint struct {
	BaseURL       string   `yaml:"base_url"`
	Model         string   `yaml:"model"`
	APIKey        string   `yaml:"api_key"`
	Timeout       float64  `yaml:"timeout"`
	MaxRetries    *int     `yaml:"max_retries"`
	InitialDelay  float64  `yaml:"initial_delay"`
	BackoffFactor float64  `yaml:"backoff_factor"`
	MaxTokens     int      `yaml:"max_tokens"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Environ returns the file values as environment variables. Zero values
// are omitted.
func (f FileConfig) Environ() map[string]string {
	env := map[string]string{}
	setString(env, "HOST", f.Host)
	setInt(env, "PORT", f.Port)
	setString(env, "DATA_DIR", f.DataDir)
	setString(env, "DB_URL", f.DBURL)
	setString(env, "LOG_LEVEL", f.LogLevel)
	setString(env, "LOG_FORMAT", f.LogFormat)
	setString(env, "API_KEYS", strings.Join(f.APIKeys, ","))
	setInt(env, "EMBEDDING_DIMENSION", f.EmbeddingDimension)
	setFloat(env, "OPERATION_TIMEOUT", f.OperationTimeout)
	setInt(env, "SEARCH_LIMIT", f.SearchLimit)
	setInt(env, "INGEST_WORKERS", f.IngestWorkers)
	setString(env, "HTTP_CACHE_DIR", f.HTTPCacheDir)
	f.EmbeddingEndpoint.environ(env, "EMBEDDING_ENDPOINT_")
	f.EnrichmentEndpoint.environ(env, "ENRICHMENT_ENDPOINT_")
	return env
}

// Export sets every file value whose variable is not already present in
// the environment, so real environment variables always win.
func (f FileConfig) Export() error {
	for key, value := range f.Environ() {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
	}
	return nil
}

func (e FileEndpoint) environ(env map[string]string, prefix string) {
	setString(env, prefix+"BASE_URL", e.BaseURL)
	setString(env, prefix+"MODEL", e.Model)
	setString(env, prefix+"API_KEY", e.APIKey)
	setFloat(env, prefix+"TIMEOUT", e.Timeout)
	if e.MaxRetries != nil {
		env[prefix+"MAX_RETRIES"] = strconv.Itoa(*e.MaxRetries)
	}
	setFloat(env, prefix+"INITIAL_DELAY", e.InitialDelay)
	setFloat(env, prefix+"BACKOFF_FACTOR", e.BackoffFactor)
	setInt(env, prefix+"MAX_TOKENS", e.MaxTokens)
}

func setString(env map[string]string, key, value string) {
	if value != "" {
		env[key] = value
	}
}

func setInt(env map[string]string, key string, value int) {
	if value != 0 {
		env[key] = strconv.Itoa(value)
	}
}

func setFloat(env map[string]string, key string, value float64) {
	if value != 0 {
		env[key] = strconv.FormatFloat(value, 'f', -1, 64)
	}
}
