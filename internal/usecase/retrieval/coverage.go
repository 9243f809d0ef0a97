package retrieval

import (
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
	"github.com/pantrychef-io/pantrychef/internal/ingredient"
)

// SelectCoveringSet greedily picks recipes that cover the query's
// ingredient tokens. Each round selects the candidate with the strictly
// largest overlap against the still-uncovered tokens; scan order of the
// pool breaks ties. The loop stops when the query is covered, numResults
// recipes are selected, candidates run out, or no candidate overlaps at
// all. Greedy set cover is an approximation; the pool must already be
// relevance-bounded for this to stay cheap.
func SelectCoveringSet(query string, candidates []recipe.Recipe, numResults, maxTime int) []recipe.Recipe {
	uncovered := ingredient.Tokenize(query)
	if len(uncovered) == 0 {
		return nil
	}

	pool := FilterByMaxTime(candidates, maxTime)
	if len(pool) == 0 {
		return nil
	}

	// Tokenize each candidate once up front.
	tokens := make([]ingredient.TokenSet, len(pool))
	for i := range pool {
		tokens[i] = ingredient.Tokenize(pool[i].AllIngredients)
	}
	remaining := make([]bool, len(pool))
	for i := range remaining {
		remaining[i] = true
	}

	var selected []recipe.Recipe

	for len(uncovered) > 0 && len(selected) < numResults {
		best := -1
		bestOverlap := 0
		for i := range pool {
			if !remaining[i] {
				continue
			}
			overlap := uncovered.OverlapCount(tokens[i])
			if overlap > bestOverlap {
				best = i
				bestOverlap = overlap
			}
		}
		if best < 0 {
			break
		}

		selected = append(selected, pool[best])
		uncovered.Subtract(tokens[best])
		remaining[best] = false
	}

	return Deduplicate(selected)
}
