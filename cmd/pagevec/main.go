// Package main is the entry point for the pagevec CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "pagevec",
		Short: "Store scraped web pages and search them by meaning",
		Long: `pagevec embeds the content of scraped web pages, stores them keyed by URL
and finds the pages nearest to a text query.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. YAML file given with --config
  3. .env file (--env-file, or .env in the current directory)
  4. Environment variables
  5. Command line flags`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.PersistentFlags().StringVar(&g.configFile, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVarP(&g.output, "output", "o", string(formatTable), "Output format: table, json, yaml")

	cmd.AddCommand(initCmd(g))
	cmd.AddCommand(storeCmd(g))
	cmd.AddCommand(ingestCmd(g))
	cmd.AddCommand(searchCmd(g))
	cmd.AddCommand(viewCmd(g))
	cmd.AddCommand(listCmd(g))
	cmd.AddCommand(serveCmd(g))
	cmd.AddCommand(stdioCmd(g))
	cmd.AddCommand(versionCmd())

	return cmd
}
