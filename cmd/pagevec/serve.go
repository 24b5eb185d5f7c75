package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/pagevec/infrastructure/api"
	"github.com/helixml/pagevec/internal/config"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

func serveCmd(g *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Routes:
  GET  /health                 Liveness and page count
  GET  /api/v1/pages           List pages (?page, ?page_size, ?url)
  POST /api/v1/pages           Embed and store a page (X-API-KEY when API_KEYS is set)
  GET  /api/v1/pages/{id}      Get a page (?include_embedding=true)
  POST /api/v1/search          Nearest-neighbor search
  /mcp                         MCP over streamable HTTP

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.pagevec)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/pagevec.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys
  EMBEDDING_DIMENSION          Width of stored embeddings (default: 1536)
  OPERATION_TIMEOUT            Seconds allowed per provider call or transaction (default: 60)
  SEARCH_LIMIT                 Results per search when none is given (default: 5)
  INGEST_WORKERS               Documents ingested at once (default: 4)
  HTTP_CACHE_DIR               Cache provider responses on disk
  OPENAI_API_KEY               Fallback API key for both endpoints

  EMBEDDING_ENDPOINT_*         Embedding AI service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (default: text-embedding-ada-002)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 0)
    INITIAL_DELAY              First retry delay in seconds (default: 2)
    BACKOFF_FACTOR             Retry delay multiplier (default: 2)

  ENRICHMENT_ENDPOINT_*        Summary AI service configuration
    (same fields as EMBEDDING_ENDPOINT, model default gpt-4, max retries 3,
    plus MAX_TOKENS, default 2048)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), g, host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(ctx context.Context, g *globalOptions, host string, port int) error {
	client, cfg, logger, err := g.openClient(serveOverrides(host, port)...)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting pagevec", attrs...)

	apiServer := api.NewAPIServer(client, cfg.APIKeys(),
		api.WithSearchLimit(cfg.SearchLimit()),
		api.WithVersion(version),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.ListenAndServe(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// serveOverrides turns command line flags into config options; flags take
// precedence over env vars.
func serveOverrides(host string, port int) []config.AppConfigOption {
	var opts []config.AppConfigOption
	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}
	return opts
}
