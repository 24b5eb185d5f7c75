package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/repository"
	"github.com/helixml/pagevec/internal/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageStore implements page.Store on top of GORM. Upserts are keyed by URL
// through the unique index and an ON CONFLICT clause, so concurrent writers
// of the same URL always converge on one row.
type PageStore struct {
	repo      database.Repository[page.Page, PageModel]
	db        database.Database
	dimension int
	now       func() time.Time
	logger    *slog.Logger
}

// PageStoreOption configures a PageStore.
type PageStoreOption func(*PageStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) PageStoreOption {
	return func(s *PageStore) { s.now = now }
}

// WithPageLogger sets the logger.
func WithPageLogger(l *slog.Logger) PageStoreOption {
	return func(s *PageStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPageStore creates a PageStore for embeddings of the given dimension.
func NewPageStore(db database.Database, dimension int, opts ...PageStoreOption) *PageStore {
	s := &PageStore{
		repo:      database.NewRepository[page.Page, PageModel](db, pageMapper{}, "page"),
		db:        db,
		dimension: dimension,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dimension returns the configured embedding dimension.
func (s *PageStore) Dimension() int { return s.dimension }

// Init creates the schema if absent.
func (s *PageStore) Init(ctx context.Context) error {
	if err := InitSchema(ctx, s.db, s.dimension, s.logger); err != nil {
		return page.NewStorageError("init", PagesTable, err)
	}
	return nil
}

// upsertAssignments is the ON CONFLICT update list. The embedding is only
// replaced when the incoming row carries one, and updated_at never moves
// backwards when writers race.
func upsertAssignments() clause.Set {
	set := clause.AssignmentColumns([]string{"title", "content", "metadata"})
	return append(set,
		clause.Assignment{
			Column: clause.Column{Name: "embedding"},
			Value:  gorm.Expr("COALESCE(excluded.embedding, " + PagesTable + ".embedding)"),
		},
		clause.Assignment{
			Column: clause.Column{Name: "updated_at"},
			Value: gorm.Expr("CASE WHEN excluded.updated_at > " + PagesTable + ".updated_at" +
				" THEN excluded.updated_at ELSE " + PagesTable + ".updated_at END"),
		},
	)
}

// Upsert creates or updates the page keyed by URL and returns the stored row.
func (s *PageStore) Upsert(ctx context.Context, u page.Upsert) (page.Page, error) {
	u = u.Normalized()
	if err := u.Validate(s.dimension); err != nil {
		return page.Page{}, err
	}

	meta, err := u.Metadata.JSON()
	if err != nil {
		return page.Page{}, page.NewValidationError("upsert", u.URL, err)
	}

	saved, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) (PageModel, error) {
		now := s.now().UTC()
		model := PageModel{
			URL:       u.URL,
			Title:     u.Title,
			Content:   u.Content,
			Metadata:  datatypes.JSON(meta),
			Embedding: database.NewVector(u.Embedding),
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoUpdates: upsertAssignments(),
		}).Create(&model).Error
		if err != nil {
			return PageModel{}, fmt.Errorf("insert page: %w", err)
		}

		var stored PageModel
		if err := tx.Where("url = ?", u.URL).First(&stored).Error; err != nil {
			return PageModel{}, fmt.Errorf("reload page: %w", err)
		}
		return stored, nil
	})
	if err != nil {
		return page.Page{}, page.NewStorageError("upsert", u.URL, err)
	}

	p := s.repo.Mapper().ToDomain(saved)
	s.logger.DebugContext(ctx, "page stored",
		slog.Int64("id", p.ID()),
		slog.String("url", p.URL()),
		slog.Bool("embedding", p.HasEmbedding()),
	)
	return p, nil
}

// Get returns the page with the given ID.
func (s *PageStore) Get(ctx context.Context, id int64) (page.Page, error) {
	key := strconv.FormatInt(id, 10)
	p, err := s.repo.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return page.Page{}, s.lookupError("get", key, err)
	}
	return p, nil
}

// FindByURL returns the page with the given URL.
func (s *PageStore) FindByURL(ctx context.Context, url string) (page.Page, error) {
	p, err := s.repo.FindOne(ctx, page.WithURL(url))
	if err != nil {
		return page.Page{}, s.lookupError("find", url, err)
	}
	return p, nil
}

// List returns pages matching the options, newest first unless the options
// request another order.
func (s *PageStore) List(ctx context.Context, options ...repository.Option) ([]page.Page, error) {
	if !repository.Build(options...).Sorted() {
		options = append(options, page.WithNewestFirst()...)
	}
	pages, err := s.repo.Find(ctx, options...)
	if err != nil {
		return nil, page.NewStorageError("list", PagesTable, err)
	}
	return pages, nil
}

// Count returns the number of pages matching the options.
func (s *PageStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	n, err := s.repo.Count(ctx, options...)
	if err != nil {
		return 0, page.NewStorageError("count", PagesTable, err)
	}
	return n, nil
}

func (s *PageStore) lookupError(op, key string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return page.NewNotFoundError(op, key)
	}
	return page.NewStorageError(op, key, err)
}

var _ page.Store = (*PageStore)(nil)
