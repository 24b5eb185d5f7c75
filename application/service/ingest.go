package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/helixml/pagevec/domain/page"
	"golang.org/x/sync/errgroup"
)

// DefaultIngestWorkers is the batch ingest concurrency when none is given.
const DefaultIngestWorkers = 4

// Document is a fetched page as produced by the scraper.
type Document struct {
	URL      string         `json:"url" yaml:"url"`
	Title    string         `json:"title" yaml:"title"`
	Content  string         `json:"content" yaml:"content"`
	MetaTags map[string]any `json:"meta_tags,omitempty" yaml:"meta_tags,omitempty"`
	HTML     string         `json:"html,omitempty" yaml:"html,omitempty"`
}

// Summarizer produces the structured summary stored under ai_parsed. It
// reports failures inside the returned object rather than as an error.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) map[string]any
}

// TextExtractor returns the visible text of an HTML document.
type TextExtractor func(html string) (string, error)

// IngestResult is the outcome of ingesting one document.
type IngestResult struct {
	URL  string
	Page page.Page
	Err  error
}

// Ingest summarizes fetched documents and stores them with embeddings.
type Ingest struct {
	index      *Index
	summarizer Summarizer
	extract    TextExtractor
	workers    int
	logger     *slog.Logger
}

// NewIngest creates a new Ingest service. A nil summarizer stores an empty
// ai_parsed object; a nil extractor never falls back to the HTML body.
func NewIngest(index *Index, summarizer Summarizer, extract TextExtractor, workers int, logger *slog.Logger) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = DefaultIngestWorkers
	}
	return &Ingest{
		index:      index,
		summarizer: summarizer,
		extract:    extract,
		workers:    workers,
		logger:     logger,
	}
}

// Ingest stores one document. Metadata is {ai_parsed, meta_tags}. When the
// document has no text content its HTML body is used instead.
func (s *Ingest) Ingest(ctx context.Context, doc Document) (page.Page, error) {
	url := strings.TrimSpace(doc.URL)
	if url == "" {
		return page.Page{}, page.NewValidationError("ingest", doc.URL, page.ErrEmptyURL)
	}

	content := doc.Content
	if strings.TrimSpace(content) == "" && doc.HTML != "" && s.extract != nil {
		text, err := s.extract(doc.HTML)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to extract text from html", slog.String("url", url), slog.Any("error", err))
		} else {
			content = text
		}
	}

	aiParsed := map[string]any{}
	if s.summarizer != nil {
		s.logger.InfoContext(ctx, "summarizing page", slog.String("url", url))
		aiParsed = s.summarizer.Summarize(ctx, doc.Title, content)
	}

	metaTags := doc.MetaTags
	if metaTags == nil {
		metaTags = map[string]any{}
	}

	metadata := page.Metadata{
		page.MetadataAIParsed: aiParsed,
		page.MetadataMetaTags: metaTags,
	}
	return s.index.StoreWithEmbedding(ctx, url, doc.Title, content, metadata)
}

// IngestBatch ingests documents with bounded concurrency. Results are in
// input order; one failed document does not stop the others.
func (s *Ingest) IngestBatch(ctx context.Context, docs []Document) []IngestResult {
	results := make([]IngestResult, len(docs))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, doc := range docs {
		results[i].URL = doc.URL
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			p, err := s.Ingest(ctx, doc)
			results[i].Page = p
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "batch ingest complete",
		slog.Int("documents", len(docs)),
		slog.Int("failed", failed),
	)
	return results
}
