package main

import (
	"errors"
	"fmt"

	"github.com/helixml/pagevec/infrastructure/persistence"
	"github.com/helixml/pagevec/internal/database"
	"github.com/helixml/pagevec/internal/log"
	"github.com/spf13/cobra"
)

func initCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the page table and indexes if they do not exist",
		Long: `Create the scraped_pages table, its unique URL index and, on PostgreSQL, the
pgvector extension and ivfflat index. Running init again is harmless.

No embedding provider is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDataDir(); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}
			logger := log.Configure(cfg)

			db, err := database.NewDatabase(cmd.Context(), cfg.DBURL(), database.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}

			store := persistence.NewPageStore(db, cfg.EmbeddingDimension(), persistence.WithPageLogger(logger))
			err = store.Init(cmd.Context())
			if err == nil {
				err = persistence.ValidateSchema(db)
			}
			if err = errors.Join(err, db.Close()); err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}

			backend := "sqlite"
			if db.IsPostgres() {
				backend = "postgres"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database initialized (%s, embedding dimension %d)\n", backend, cfg.EmbeddingDimension())
			return nil
		},
	}
}
