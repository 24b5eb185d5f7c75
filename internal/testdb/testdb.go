// Package testdb provides a shared test database helper for fast,
// realistic testing against an in-memory SQLite database.
package testdb

import (
	"context"
	"testing"

	"github.com/helixml/pagevec/infrastructure/persistence"
	"github.com/helixml/pagevec/internal/database"
)

// Dimension is the embedding width of databases created by New.
const Dimension = 3

// New creates an in-memory SQLite database with the page schema for
// Dimension-wide embeddings. The database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	return NewWithDimension(t, Dimension)
}

// NewWithDimension creates an in-memory SQLite database with the page schema
// for embeddings of the given width.
func NewWithDimension(t *testing.T, dimension int) database.Database {
	t.Helper()
	ctx := context.Background()
	db := NewPlain(t)
	if err := persistence.InitSchema(ctx, db, dimension, nil); err != nil {
		t.Fatalf("testdb.New: init schema: %v", err)
	}
	return db
}

// NewPlain creates an in-memory SQLite database without any schema.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.NewPlain: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithSchema creates an in-memory SQLite database and executes the given
// SQL statements to set up a custom schema.
func WithSchema(t *testing.T, statements ...string) database.Database {
	t.Helper()
	ctx := context.Background()
	db := NewPlain(t)
	for _, stmt := range statements {
		if err := db.Session(ctx).Exec(stmt).Error; err != nil {
			t.Fatalf("testdb.WithSchema: %v\nSQL: %s", err, stmt)
		}
	}
	return db
}
