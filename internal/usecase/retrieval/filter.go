package retrieval

import "github.com/pantrychef-io/pantrychef/internal/domain/recipe"

// Deduplicate keeps the first occurrence per identity key, preserving
// order of first appearance.
func Deduplicate(docs []recipe.Recipe) []recipe.Recipe {
	seen := make(map[string]struct{}, len(docs))
	out := make([]recipe.Recipe, 0, len(docs))
	for _, d := range docs {
		key := d.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}

// FilterByMaxTime keeps recipes whose total prep+cook minutes fit the
// budget. maxTime <= 0 means no budget. Recipes with unknown times are
// treated as exceeding any finite budget and excluded.
func FilterByMaxTime(docs []recipe.Recipe, maxTime int) []recipe.Recipe {
	if maxTime <= 0 {
		return docs
	}
	out := make([]recipe.Recipe, 0, len(docs))
	for _, d := range docs {
		total, ok := d.TotalMinutes()
		if !ok || total > maxTime {
			continue
		}
		out = append(out, d)
	}
	return out
}
