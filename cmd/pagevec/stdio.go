package main

import (
	"log/slog"

	"github.com/helixml/pagevec/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

AI assistants can then search stored pages and read them through the
search_pages, get_page and list_pages tools. Logs go to stderr so stdout
carries only the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, logger, err := g.openClient()
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			logger.Info("starting MCP server",
				slog.String("version", version),
				slog.String("data_dir", cfg.DataDir()),
			)

			return mcp.NewServer(client.Index, client.Pages, version, logger).ServeStdio()
		},
	}
}
