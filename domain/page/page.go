// Package page provides the domain types for stored web pages.
package page

import (
	"strings"
	"time"
)

// Page is a scraped web page persisted with its embedding.
// It is an immutable value object identified by its ID once persisted.
type Page struct {
	id        int64
	url       string
	title     string
	content   string
	metadata  Metadata
	embedding []float64
	createdAt time.Time
	updatedAt time.Time
}

// NewPage creates a page that has not been persisted yet.
func NewPage(url, title, content string, metadata Metadata) Page {
	return Page{
		url:      url,
		title:    title,
		content:  content,
		metadata: metadata.Clone(),
	}
}

// ReconstructPage recreates a page from persistence.
func ReconstructPage(
	id int64,
	url, title, content string,
	metadata Metadata,
	embedding []float64,
	createdAt, updatedAt time.Time,
) Page {
	return Page{
		id:        id,
		url:       url,
		title:     title,
		content:   content,
		metadata:  metadata.Clone(),
		embedding: copyVector(embedding),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the surrogate key, zero before persistence.
func (p Page) ID() int64 { return p.id }

// URL returns the unique page URL.
func (p Page) URL() string { return p.url }

// Title returns the page title, possibly empty.
func (p Page) Title() string { return p.title }

// Content returns the cleaned page body.
func (p Page) Content() string { return p.content }

// Metadata returns a copy of the page metadata document.
func (p Page) Metadata() Metadata { return p.metadata.Clone() }

// Embedding returns a copy of the content embedding, or nil if the page was
// stored without one.
func (p Page) Embedding() []float64 { return copyVector(p.embedding) }

// HasEmbedding reports whether the page carries an embedding.
func (p Page) HasEmbedding() bool { return p.embedding != nil }

// Dimension returns the embedding length, zero without an embedding.
func (p Page) Dimension() int { return len(p.embedding) }

// CreatedAt returns when the page was first stored.
func (p Page) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns when the page was last stored.
func (p Page) UpdatedAt() time.Time { return p.updatedAt }

// Upsert is the input of a create-or-update keyed by URL.
// A nil Embedding leaves any stored embedding untouched.
type Upsert struct {
	URL       string
	Title     string
	Content   string
	Metadata  Metadata
	Embedding []float64
}

// Normalized returns the upsert with the URL trimmed.
func (u Upsert) Normalized() Upsert {
	u.URL = strings.TrimSpace(u.URL)
	return u
}

// Validate checks the upsert against a store dimension before any I/O.
func (u Upsert) Validate(dimension int) error {
	if strings.TrimSpace(u.URL) == "" {
		return NewValidationError("upsert", u.URL, ErrEmptyURL)
	}
	if u.Embedding != nil && len(u.Embedding) != dimension {
		return NewValidationError("upsert", u.URL, &DimensionError{Expected: dimension, Actual: len(u.Embedding)})
	}
	return nil
}

func copyVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	cp := make([]float64, len(v))
	copy(cp, v)
	return cp
}
