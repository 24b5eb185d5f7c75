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

// SQLiteVectorStore implements search.VectorStore for SQLite.
// Embeddings are stored as JSON text and ranked in memory by cosine distance.
type SQLiteVectorStore struct {
	db        database.Database
	dimension int
	logger    *slog.Logger
}

// NewSQLiteVectorStore creates a new SQLiteVectorStore.
func NewSQLiteVectorStore(db database.Database, dimension int, logger *slog.Logger) *SQLiteVectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteVectorStore{db: db, dimension: dimension, logger: logger}
}

// vectorRow is the id and embedding of one page. The type tag makes GORM
// treat Vector as a scanned column rather than a relation.
type vectorRow struct {
	ID        int64           `gorm:"column:id"`
	Embedding database.Vector `gorm:"column:embedding;type:vector"`
}

// Nearest ranks every page that has an embedding and loads the closest ones.
// Both reads share one transaction, so a returned page is the row its
// distance was computed from.
func (s *SQLiteVectorStore) Nearest(ctx context.Context, vector []float64, limit int) ([]search.Match, error) {
	if len(vector) != s.dimension {
		return nil, &page.DimensionError{Expected: s.dimension, Actual: len(vector)}
	}
	if limit <= 0 {
		return []search.Match{}, nil
	}

	return database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]search.Match, error) {
		vectors, err := s.loadVectors(ctx, tx)
		if err != nil {
			return nil, err
		}

		ranked := nearestIDs(vector, vectors, limit)
		if len(ranked) == 0 {
			return []search.Match{}, nil
		}

		ids := make([]int64, len(ranked))
		for i, r := range ranked {
			ids[i] = r.id
		}
		var models []PageModel
		if err := tx.Where("id IN ?", ids).Find(&models).Error; err != nil {
			return nil, fmt.Errorf("load pages: %w", err)
		}

		mapper := pageMapper{}
		byID := make(map[int64]page.Page, len(models))
		for _, m := range models {
			byID[m.ID] = mapper.ToDomain(m)
		}

		matches := make([]search.Match, 0, len(ranked))
		for _, r := range ranked {
			if p, ok := byID[r.id]; ok {
				matches = append(matches, search.NewMatch(p, r.distance))
			}
		}
		return matches, nil
	})
}

// loadVectors loads every non-NULL embedding. A stored vector whose length
// differs from the store dimension is a fatal *page.DimensionError.
func (s *SQLiteVectorStore) loadVectors(ctx context.Context, tx *gorm.DB) ([]storedVector, error) {
	var rows []vectorRow
	err := tx.Table(PagesTable).
		Select("id, embedding").
		Where("embedding IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	vectors := make([]storedVector, 0, len(rows))
	for _, row := range rows {
		if row.Embedding.Dimension() != s.dimension {
			s.logger.ErrorContext(ctx, "stored embedding has wrong dimension",
				slog.Int64("id", row.ID),
				slog.Int("dimension", row.Embedding.Dimension()),
				slog.Int("expected", s.dimension),
			)
			return nil, fmt.Errorf("page %d: %w", row.ID, &page.DimensionError{
				Expected: s.dimension,
				Actual:   row.Embedding.Dimension(),
			})
		}
		vectors = append(vectors, storedVector{id: row.ID, embedding: row.Embedding.Floats()})
	}
	return vectors, nil
}

var _ search.VectorStore = (*SQLiteVectorStore)(nil)
