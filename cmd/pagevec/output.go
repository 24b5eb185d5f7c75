package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/search"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

// contentPreview is the number of characters of content shown by view in
// table format.
const contentPreview = 500

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		return formatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q: use table, json or yaml", s)
	}
}

// pageRecord is the serialized form of a page in json and yaml output.
type pageRecord struct {
	ID        int64          `json:"id" yaml:"id"`
	URL       string         `json:"url" yaml:"url"`
	Title     string         `json:"title" yaml:"title"`
	Content   string         `json:"content,omitempty" yaml:"content,omitempty"`
	Summary   string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// matchRecord is the serialized form of a search match.
type matchRecord struct {
	Rank       int     `json:"rank" yaml:"rank"`
	ID         int64   `json:"id" yaml:"id"`
	URL        string  `json:"url" yaml:"url"`
	Title      string  `json:"title" yaml:"title"`
	Summary    string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Distance   float64 `json:"distance" yaml:"distance"`
	Similarity float64 `json:"similarity_percent" yaml:"similarity_percent"`
}

type searchRecord struct {
	Query    string        `json:"query" yaml:"query"`
	Degraded bool          `json:"degraded" yaml:"degraded"`
	Results  []matchRecord `json:"results" yaml:"results"`
}

// ingestRecord reports the result of storing one document.
type ingestRecord struct {
	URL   string `json:"url" yaml:"url"`
	ID    int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func toPageRecord(p page.Page, full bool) pageRecord {
	r := pageRecord{
		ID:        p.ID(),
		URL:       p.URL(),
		Title:     p.Title(),
		Summary:   p.Metadata().Summary(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
	if full {
		r.Content = p.Content()
		r.Metadata = map[string]any(p.Metadata())
	}
	return r
}

func toSearchRecord(query string, outcome search.Outcome) searchRecord {
	rec := searchRecord{Query: query, Degraded: outcome.Degraded(), Results: []matchRecord{}}
	for i, m := range outcome.Matches() {
		p := m.Page()
		rec.Results = append(rec.Results, matchRecord{
			Rank:       i + 1,
			ID:         p.ID(),
			URL:        p.URL(),
			Title:      p.Title(),
			Summary:    p.Metadata().Summary(),
			Distance:   m.Distance(),
			Similarity: m.SimilarityPercent(),
		})
	}
	return rec
}

// encode writes v as json or yaml. It reports false for table format.
func encode(w io.Writer, format outputFormat, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func printSearch(w io.Writer, format outputFormat, rec searchRecord) error {
	if done, err := encode(w, format, rec); done {
		return err
	}

	if rec.Degraded {
		fmt.Fprintln(w, "warning: search failed in storage, showing no results")
	}
	if len(rec.Results) == 0 {
		fmt.Fprintf(w, "No pages found for %q\n", rec.Query)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSIMILARITY\tID\tTITLE\tURL")
	for _, r := range rec.Results {
		fmt.Fprintf(tw, "%d\t%.1f%%\t%d\t%s\t%s\n", r.Rank, r.Similarity, r.ID, truncate(oneLine(r.Title), 50), r.URL)
	}
	return tw.Flush()
}

func printPages(w io.Writer, format outputFormat, pages []pageRecord) error {
	if done, err := encode(w, format, pages); done {
		return err
	}

	if len(pages) == 0 {
		fmt.Fprintln(w, "No pages stored")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPDATED\tTITLE\tURL")
	for _, p := range pages {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.UpdatedAt.Format(time.DateTime), truncate(oneLine(p.Title), 50), p.URL)
	}
	return tw.Flush()
}

func printPage(w io.Writer, format outputFormat, p pageRecord) error {
	if done, err := encode(w, format, p); done {
		return err
	}

	fmt.Fprintf(w, "ID:      %d\n", p.ID)
	fmt.Fprintf(w, "URL:     %s\n", p.URL)
	fmt.Fprintf(w, "Title:   %s\n", p.Title)
	fmt.Fprintf(w, "Stored:  %s\n", p.CreatedAt.Format(time.DateTime))
	fmt.Fprintf(w, "Updated: %s\n", p.UpdatedAt.Format(time.DateTime))
	if p.Summary != "" {
		fmt.Fprintf(w, "\nSummary:\n%s\n", p.Summary)
	}
	if p.Content != "" {
		fmt.Fprintf(w, "\nContent:\n%s\n", truncate(p.Content, contentPreview))
	}
	return nil
}

func printIngest(w io.Writer, format outputFormat, results []ingestRecord) error {
	if done, err := encode(w, format, results); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tID\tURL")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "failed\t-\t%s: %s\n", r.URL, r.Error)
			continue
		}
		fmt.Fprintf(tw, "stored\t%s\t%s\n", strconv.FormatInt(r.ID, 10), r.URL)
	}
	return tw.Flush()
}

// oneLine collapses all whitespace runs to single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
