package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/search"
	"github.com/helixml/pagevec/internal/database"
	"gorm.io/gorm"
)

// PgvectorStore implements search.VectorStore using the pgvector <=> cosine
// distance operator.
type PgvectorStore struct {
	db        database.Database
	dimension int
	logger    *slog.Logger
}

// NewPgvectorStore creates a new PgvectorStore.
func NewPgvectorStore(db database.Database, dimension int, logger *slog.Logger) *PgvectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PgvectorStore{db: db, dimension: dimension, logger: logger}
}

type pageDistanceRow struct {
	PageModel `gorm:"embedded"`
	Distance  float64 `gorm:"column:distance"`
}

// distanceExpr is pgvector's cosine distance with NaN, which <=> yields for a
// zero-magnitude vector, mapped to 1 as CosineDistance does on SQLite.
const distanceExpr = "COALESCE(NULLIF(embedding <=> ?, 'NaN'::float8), 1)"

// Nearest orders pages by cosine distance inside a read transaction that
// probes every ivfflat list, so the index never drops true neighbors.
func (s *PgvectorStore) Nearest(ctx context.Context, vector []float64, limit int) ([]search.Match, error) {
	if len(vector) != s.dimension {
		return nil, &page.DimensionError{Expected: s.dimension, Actual: len(vector)}
	}
	if limit <= 0 {
		return []search.Match{}, nil
	}

	query := database.NewVector(vector).String()

	rows, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]pageDistanceRow, error) {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL ivfflat.probes = %d", ivfflatLists)).Error; err != nil {
			return nil, fmt.Errorf("set probes: %w", err)
		}
		var rows []pageDistanceRow
		err := tx.Table(PagesTable).
			Select("*, "+distanceExpr+" AS distance", query).
			Where("embedding IS NOT NULL").
			Order("distance ASC").
			Order("id ASC").
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("rank embeddings: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	mapper := pageMapper{}
	matches := make([]search.Match, len(rows))
	for i, row := range rows {
		matches[i] = search.NewMatch(mapper.ToDomain(row.PageModel), row.Distance)
	}
	return matches, nil
}

var _ search.VectorStore = (*PgvectorStore)(nil)

// NewVectorStore returns the vector store matching the database dialect.
func NewVectorStore(db database.Database, dimension int, logger *slog.Logger) search.VectorStore {
	if db.IsPostgres() {
		return NewPgvectorStore(db, dimension, logger)
	}
	return NewSQLiteVectorStore(db, dimension, logger)
}
