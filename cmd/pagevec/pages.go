package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/helixml/pagevec/application/service"
	"github.com/helixml/pagevec/internal/config"
	"github.com/spf13/cobra"
)

// maxDocumentLine bounds one JSON lines record; scraped pages can be large.
const maxDocumentLine = 32 << 20

func storeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "store [file]",
		Short: "Summarize, embed and store one fetched page",
		Long: `Read one fetched page as a JSON object from file, or from stdin when the
file is omitted or "-":

  {"url": "...", "title": "...", "content": "...", "meta_tags": {...}, "html": "..."}

The page is summarized when an enrichment endpoint is configured, embedded,
and upserted by URL. Nothing is written when embedding fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(g.output)
			if err != nil {
				return err
			}

			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()

			var doc service.Document
			if err := json.NewDecoder(in).Decode(&doc); err != nil {
				return fmt.Errorf("decode document: %w", err)
			}

			client, _, logger, err := g.openClient()
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			p, err := client.Ingest.Ingest(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("store %s: %w", doc.URL, err)
			}
			return printPage(cmd.OutOrStdout(), format, toPageRecord(p, false))
		},
	}
}

func ingestCmd(g *globalOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Store a batch of fetched pages from JSON lines",
		Long: `Read fetched pages as JSON lines, one document per line, from file or stdin,
and store each one as "store" does. Documents are processed concurrently; a
failed document does not stop the others. The command fails if any document
failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(g.output)
			if err != nil {
				return err
			}

			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()

			docs, err := readDocuments(in)
			if err != nil {
				return err
			}

			var opts []config.AppConfigOption
			if workers > 0 {
				opts = append(opts, config.WithIngestWorkers(workers))
			}
			client, _, logger, err := g.openClient(opts...)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			results := client.Ingest.IngestBatch(cmd.Context(), docs)

			records := make([]ingestRecord, len(results))
			failed := 0
			for i, r := range results {
				records[i] = ingestRecord{URL: r.URL}
				if r.Err != nil {
					records[i].Error = r.Err.Error()
					failed++
					continue
				}
				records[i].ID = r.Page.ID()
			}
			if err := printIngest(cmd.OutOrStdout(), format, records); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(docs))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Documents processed at once (default: INGEST_WORKERS or 4)")

	return cmd
}

func viewCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show a stored page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(g.output)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid page id %q", args[0])
			}

			client, _, logger, err := g.openClient()
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			p, err := client.Pages.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), format, toPageRecord(p, true))
		},
	}
}

func listCmd(g *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored pages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(g.output)
			if err != nil {
				return err
			}

			client, _, logger, err := g.openClient()
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			pages, err := client.Pages.List(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			records := make([]pageRecord, len(pages))
			for i, p := range pages {
				records[i] = toPageRecord(p, false)
			}
			return printPages(cmd.OutOrStdout(), format, records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of pages to list")

	return cmd
}

// openInput returns the file named by args[0], or stdin when there is no
// argument or it is "-".
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// readDocuments parses JSON lines. Blank lines are skipped; a malformed line
// fails the whole read before anything is stored.
func readDocuments(r io.Reader) ([]service.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDocumentLine)

	var docs []service.Document
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc service.Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("line %d: decode document: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return docs, nil
}
