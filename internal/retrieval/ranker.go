package retrieval

import (
	"fmt"
	"math"
	"sort"

	"github.com/sohae-kim/portfolio-chat/internal/store"
)

// Result pairs a chunk with its cosine similarity to the query, in [-1, 1].
type Result struct {
	Chunk store.Chunk
	Score float64
}

// DimensionMismatchError means the query vector was produced by a different
// embedding model than the one used at build time.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("query embedding has dimension %d, store has %d", e.Got, e.Want)
}

// Rank scores every chunk in the store against the query vector and returns
// at most k results with score >= minScore, best first. Ties keep store
// order, so results are deterministic. It is a pure function over immutable
// inputs; concurrent calls are safe.
//
// The scan is linear, O(N*D). The corpus is a few dozen portfolio sections,
// so anything cleverer would be noise; callers only see the contract, which
// leaves room to swap in an indexed search later.
func Rank(query []float32, st *store.Store, k int, minScore float64) ([]Result, error) {
	if len(query) != st.Dim() {
		return nil, &DimensionMismatchError{Got: len(query), Want: st.Dim()}
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	chunks := st.All()
	results := make([]Result, 0, len(chunks))
	for _, ch := range chunks {
		score := cosine(query, ch.Embedding)
		if score >= minScore {
			results = append(results, Result{Chunk: ch, Score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosine computes cosine similarity, accumulating in float64. A zero
// magnitude on either side scores 0 instead of dividing by zero.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
