package retrieval

import (
	"sort"

	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// RerankBySimilarity reorders candidates by dot-product similarity
// between the query vector and each candidate's stored vector, keeping
// the topK highest scores in descending order. Candidates without a
// vector are skipped. Stored vectors are unit-normalized at ingestion,
// so dot product and cosine similarity coincide. Returned recipes have
// their vectors stripped.
func RerankBySimilarity(queryVec []float32, candidates []recipe.Recipe, topK int) []recipe.Recipe {
	if len(candidates) == 0 || len(queryVec) == 0 {
		return nil
	}

	type scored struct {
		rec   recipe.Recipe
		score float64
		order int
	}

	pool := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if len(c.Vector) != len(queryVec) {
			continue
		}
		pool = append(pool, scored{rec: c, score: dot(queryVec, c.Vector), order: i})
	}

	// Descending score; input order breaks ties.
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].order < pool[j].order
	})

	if topK > 0 && len(pool) > topK {
		pool = pool[:topK]
	}

	out := make([]recipe.Recipe, 0, len(pool))
	for _, s := range pool {
		out = append(out, s.rec.WithoutVector())
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
