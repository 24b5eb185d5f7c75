package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
	}{
		{name: "identical vectors", a: []float64{1, 0, 0}, b: []float64{1, 0, 0}, expected: 1.0},
		{name: "opposite vectors", a: []float64{1, 0, 0}, b: []float64{-1, 0, 0}, expected: -1.0},
		{name: "orthogonal vectors", a: []float64{1, 0, 0}, b: []float64{0, 1, 0}, expected: 0.0},
		{name: "zero vector a", a: []float64{0, 0, 0}, b: []float64{1, 0, 0}, expected: 0.0},
		{name: "both zero vectors", a: []float64{0, 0, 0}, b: []float64{0, 0, 0}, expected: 0.0},
		{name: "empty vectors", a: []float64{}, b: []float64{}, expected: 0.0},
		{name: "mismatched lengths", a: []float64{1, 0}, b: []float64{1, 0, 0}, expected: 0.0},
		{name: "scale invariant", a: []float64{1, 1, 0}, b: []float64{5, 5, 0}, expected: 1.0},
		{name: "similar vectors", a: []float64{1, 1, 0}, b: []float64{1, 0.9, 0.1}, expected: 0.9959},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 0.001)
		})
	}
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 1.0, CosineDistance([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, 2.0, CosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-9)
}

func TestNearestIDs(t *testing.T) {
	query := []float64{1, 0, 0}
	vectors := []storedVector{
		{id: 4, embedding: []float64{-1, 0, 0}},
		{id: 3, embedding: []float64{0, 1, 0}},
		{id: 2, embedding: []float64{0.9, 0.1, 0}},
		{id: 1, embedding: []float64{1, 0, 0}},
	}

	t.Run("top 2", func(t *testing.T) {
		results := nearestIDs(query, vectors, 2)
		require.Len(t, results, 2)
		assert.Equal(t, int64(1), results[0].id)
		assert.InDelta(t, 0.0, results[0].distance, 0.001)
		assert.Equal(t, int64(2), results[1].id)
	})

	t.Run("k larger than results", func(t *testing.T) {
		results := nearestIDs(query, vectors, 10)
		require.Len(t, results, 4)
		assert.Equal(t, int64(4), results[3].id)
	})

	t.Run("k is zero", func(t *testing.T) {
		assert.Empty(t, nearestIDs(query, vectors, 0))
	})

	t.Run("no vectors", func(t *testing.T) {
		assert.Empty(t, nearestIDs(query, nil, 5))
	})

	t.Run("ties broken by id", func(t *testing.T) {
		tied := []storedVector{
			{id: 9, embedding: []float64{0, 1, 0}},
			{id: 5, embedding: []float64{0, 0, 1}},
			{id: 7, embedding: []float64{0, 2, 0}},
		}
		results := nearestIDs(query, tied, 3)
		require.Len(t, results, 3)
		assert.Equal(t, []int64{5, 7, 9}, []int64{results[0].id, results[1].id, results[2].id})
	})
}
