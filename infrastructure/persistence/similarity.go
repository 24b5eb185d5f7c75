package persistence

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance returns 1 - CosineSimilarity, matching pgvector's <=>
// operator. The result lies in [0, 2]. A zero-magnitude vector is at distance
// 1 from everything; PgvectorStore maps <=>'s NaN to the same value.
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// storedVector is a page embedding loaded for in-memory ranking.
type storedVector struct {
	id        int64
	embedding []float64
}

// rankedID is a page ID with its distance to the query.
type rankedID struct {
	id       int64
	distance float64
}

// nearestIDs ranks vectors by ascending cosine distance to query, breaking
// ties by ascending ID, and returns at most k entries.
func nearestIDs(query []float64, vectors []storedVector, k int) []rankedID {
	if len(vectors) == 0 || k <= 0 {
		return []rankedID{}
	}

	ranked := make([]rankedID, len(vectors))
	for i, v := range vectors {
		ranked[i] = rankedID{id: v.id, distance: CosineDistance(query, v.embedding)}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].id < ranked[j].id
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
