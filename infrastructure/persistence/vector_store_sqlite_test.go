package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPages(t *testing.T, store *PageStore, pages ...page.Upsert) []page.Page {
	t.Helper()
	out := make([]page.Page, len(pages))
	for i, u := range pages {
		p, err := store.Upsert(context.Background(), u)
		require.NoError(t, err)
		out[i] = p
	}
	return out
}

func TestSQLiteVectorStore_NearestOrdering(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedPages(t, store,
		page.Upsert{URL: "https://cats", Title: "cats", Embedding: []float64{1, 0, 0}},
		page.Upsert{URL: "https://dogs", Title: "dogs", Embedding: []float64{0.8, 0.6, 0}},
		page.Upsert{URL: "https://stocks", Title: "stocks", Embedding: []float64{0, 0, 1}},
	)

	vs := NewSQLiteVectorStore(db, testDimension, nil)
	matches, err := vs.Nearest(ctx, []float64{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "https://cats", matches[0].Page().URL())
	assert.Equal(t, "https://dogs", matches[1].Page().URL())
	assert.Equal(t, "https://stocks", matches[2].Page().URL())
	assert.InDelta(t, 0.0, matches[0].Distance(), 1e-9)
	assert.InDelta(t, 0.2, matches[1].Distance(), 1e-9)
	assert.InDelta(t, 1.0, matches[2].Distance(), 1e-9)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Distance(), matches[i].Distance())
	}
}

func TestSQLiteVectorStore_TiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seeded := seedPages(t, store,
		page.Upsert{URL: "https://b", Embedding: []float64{0, 1, 0}},
		page.Upsert{URL: "https://a", Embedding: []float64{0, 1, 0}},
	)

	matches, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(ctx, []float64{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, seeded[0].ID(), matches[0].Page().ID())
	assert.Equal(t, seeded[1].ID(), matches[1].Page().ID())
}

func TestSQLiteVectorStore_ExcludesPagesWithoutEmbedding(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedPages(t, store,
		page.Upsert{URL: "https://embedded", Embedding: []float64{1, 0, 0}},
		page.Upsert{URL: "https://legacy", Title: "no vector"},
	)

	matches, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(ctx, []float64{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "https://embedded", matches[0].Page().URL())
}

func TestSQLiteVectorStore_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedPages(t, store,
		page.Upsert{URL: "https://1", Embedding: []float64{1, 0, 0}},
		page.Upsert{URL: "https://2", Embedding: []float64{1, 1, 0}},
		page.Upsert{URL: "https://3", Embedding: []float64{0, 1, 0}},
	)
	vs := NewSQLiteVectorStore(db, testDimension, nil)

	matches, err := vs.Nearest(ctx, []float64{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = vs.Nearest(ctx, []float64{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSQLiteVectorStore_EmptyTable(t *testing.T) {
	_, db := newTestStore(t)

	matches, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(context.Background(), []float64{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSQLiteVectorStore_QueryDimensionMismatch(t *testing.T) {
	_, db := newTestStore(t)

	_, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(context.Background(), []float64{1, 0}, 5)
	require.Error(t, err)
	assert.True(t, page.IsDimensionMismatch(err))
}

func TestSQLiteVectorStore_StoredDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	_, db := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, db.Session(ctx).Exec(
		"INSERT INTO scraped_pages (url, title, content, metadata, embedding, created_at, updated_at) VALUES (?, '', '', '{}', ?, ?, ?)",
		"https://old-model", "[1,2]", now, now,
	).Error)

	_, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(ctx, []float64{1, 0, 0}, 5)
	require.Error(t, err)
	assert.True(t, page.IsDimensionMismatch(err))
}

func TestSQLiteVectorStore_MissingTable(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(context.Background(), []float64{1, 0, 0}, 5)
	require.Error(t, err)
	assert.False(t, page.IsDimensionMismatch(err))
}

func TestNewVectorStore_PicksDialect(t *testing.T) {
	db := newTestDB(t)
	_, ok := NewVectorStore(db, testDimension, nil).(*SQLiteVectorStore)
	assert.True(t, ok)
}

func TestSQLiteVectorStore_MatchesAgreeWithDistanceUnderConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedPages(t, store, page.Upsert{URL: "https://flip", Content: "near", Embedding: []float64{1, 0, 0}})
	vs := NewSQLiteVectorStore(db, testDimension, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			u := page.Upsert{URL: "https://flip", Content: "near", Embedding: []float64{1, 0, 0}}
			if i%2 == 1 {
				u = page.Upsert{URL: "https://flip", Content: "far", Embedding: []float64{0, 1, 0}}
			}
			_, err := store.Upsert(ctx, u)
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 50; i++ {
		matches, err := vs.Nearest(ctx, []float64{1, 0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		m := matches[0]
		assert.InDelta(t, CosineDistance([]float64{1, 0, 0}, m.Page().Embedding()), m.Distance(), 1e-9,
			"distance must come from the returned row")
	}
	wg.Wait()
}

func TestSQLiteVectorStore_ZeroVectorHasDistanceOne(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedPages(t, store,
		page.Upsert{URL: "https://zero", Embedding: []float64{0, 0, 0}},
		page.Upsert{URL: "https://opposite", Embedding: []float64{-1, 0, 0}},
	)

	matches, err := NewSQLiteVectorStore(db, testDimension, nil).Nearest(ctx, []float64{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "https://zero", matches[0].Page().URL())
	assert.InDelta(t, 1.0, matches[0].Distance(), 1e-9)
	assert.InDelta(t, 2.0, matches[1].Distance(), 1e-9)
}
