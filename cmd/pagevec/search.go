package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd(g *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the stored pages closest in meaning to a query",
		Long: `Embed the query and list stored pages by ascending cosine distance.
Similarity is shown as (1 - distance) * 100.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(g.output)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			client, cfg, logger, err := g.openClient()
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			n := cfg.SearchLimit()
			if cmd.Flags().Changed("limit") {
				n = limit
			}

			outcome, err := client.Index.Search(cmd.Context(), query, n)
			if err != nil {
				return err
			}
			return printSearch(cmd.OutOrStdout(), format, toSearchRecord(query, outcome))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default: SEARCH_LIMIT or 5)")

	return cmd
}
