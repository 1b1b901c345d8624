package memory

import (
	"cmp"
	"math"
	"slices"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// norm returns the Euclidean length of v.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns the cosine similarity of a and b given their norms.
// A zero-length vector has similarity 0 with everything.
func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// rank orders hits by descending score, breaking ties by ascending chunk ID,
// and keeps at most k of them.
func rank(hits []domain.ScoredChunk, k int) domain.RetrievalResult {
	slices.SortFunc(hits, func(a, b domain.ScoredChunk) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return domain.RetrievalResult(hits)
}
