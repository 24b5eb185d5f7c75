// Package persistence provides database storage implementations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helixml/pagevec/internal/database"
	"gorm.io/gorm"
)

// PagesTable is the table holding scraped pages.
const PagesTable = "scraped_pages"

// DefaultDimension is the embedding width of text-embedding-ada-002.
const DefaultDimension = 1536

// ivfflatLists is the number of inverted lists in the pgvector index. Searches
// probe every list, which keeps results exact.
const ivfflatLists = 100

// ErrDimensionMismatch indicates the stored embedding column width differs
// from the configured dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ErrSchemaInitializationFailed indicates the page schema could not be created.
var ErrSchemaInitializationFailed = errors.New("failed to initialize page schema")

const sqliteCreatePages = `
CREATE TABLE IF NOT EXISTS scraped_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    metadata JSON NOT NULL DEFAULT '{}',
    embedding TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`

// SQL specific to pgvector (extension, indexes, catalog).
const (
	pgvCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgvCreatePagesTemplate = `
CREATE TABLE IF NOT EXISTS scraped_pages (
    id BIGSERIAL PRIMARY KEY,
    url TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    embedding VECTOR(%d),
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

	pgvCreateIndexTemplate = `
CREATE INDEX IF NOT EXISTS ix_scraped_pages_embedding
ON scraped_pages
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = %d)`

	pgvCheckDimension = `
SELECT a.atttypmod AS dimension
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = 'scraped_pages'
AND a.attname = 'embedding'`
)

const createURLIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ix_scraped_pages_url ON scraped_pages (url)`

// InitSchema creates the page table and its indexes if absent and verifies
// the embedding column width on PostgreSQL. It is safe to call repeatedly.
func InitSchema(ctx context.Context, db database.Database, dimension int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if dimension <= 0 {
		return errors.Join(ErrSchemaInitializationFailed, fmt.Errorf("invalid dimension %d", dimension))
	}

	var err error
	if db.IsPostgres() {
		err = initPostgres(ctx, db, dimension, logger)
	} else {
		err = initSQLite(ctx, db)
	}
	if err != nil {
		return err
	}
	return ValidateSchema(db)
}

func initSQLite(ctx context.Context, db database.Database) error {
	gdb := db.Session(ctx)
	for _, stmt := range []string{sqliteCreatePages, createURLIndex} {
		if err := gdb.Exec(stmt).Error; err != nil {
			return errors.Join(ErrSchemaInitializationFailed, err)
		}
	}
	return nil
}

func initPostgres(ctx context.Context, db database.Database, dimension int, logger *slog.Logger) error {
	gdb := db.Session(ctx)

	if err := gdb.Exec(pgvCreateExtension).Error; err != nil {
		return errors.Join(ErrSchemaInitializationFailed, fmt.Errorf("create extension: %w", err))
	}
	if err := gdb.Exec(fmt.Sprintf(pgvCreatePagesTemplate, dimension)).Error; err != nil {
		return errors.Join(ErrSchemaInitializationFailed, fmt.Errorf("create table: %w", err))
	}
	if err := gdb.Exec(createURLIndex).Error; err != nil {
		return errors.Join(ErrSchemaInitializationFailed, fmt.Errorf("create url index: %w", err))
	}

	var dbDimension int
	result := gdb.Raw(pgvCheckDimension).Scan(&dbDimension)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return errors.Join(ErrSchemaInitializationFailed, fmt.Errorf("check dimension: %w", result.Error))
	}
	if result.RowsAffected > 0 && dbDimension != dimension {
		return fmt.Errorf("%w: database has %d, configured %d", ErrDimensionMismatch, dbDimension, dimension)
	}

	// The index only speeds up scans, so a failure here is not fatal.
	if err := gdb.Exec(fmt.Sprintf(pgvCreateIndexTemplate, ivfflatLists)).Error; err != nil {
		logger.Warn("failed to create embedding index (may already exist)", "error", err)
	}
	return nil
}

// ValidateSchema verifies every PageModel field has a corresponding column
// in the database. Returns an error listing any missing columns.
func ValidateSchema(db database.Database) error {
	gdb := db.GORM()
	model := &PageModel{}

	stmt := &gorm.Statement{DB: gdb}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse model schema: %w", err)
	}

	columnTypes, err := gdb.Migrator().ColumnTypes(model)
	if err != nil {
		return fmt.Errorf("get column types for %s: %w", stmt.Table, err)
	}

	actual := make(map[string]bool, len(columnTypes))
	for _, ct := range columnTypes {
		actual[ct.Name()] = true
	}

	var missing []string
	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" || field.DBName == "-" {
			continue
		}
		if !actual[field.DBName] {
			missing = append(missing, stmt.Table+"."+field.DBName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema validation failed, missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
