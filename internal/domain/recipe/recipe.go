// Package recipe defines the corpus document type shared by all layers.
package recipe

import (
	"fmt"
	"strconv"
)

// Recipe is a single corpus entry. Fields are populated and validated at
// the document store boundary; the core never mutates a stored recipe.
type Recipe struct {
	ID                  string
	Name                string
	MainIngredients     string
	AllIngredients      string
	Instructions        string
	CuisineType         string
	MealType            string
	Difficulty          string
	DietaryRestrictions string

	// PrepMinutes and CookMinutes are nil when the source value was
	// missing or unparsable. A nil time never passes a time budget.
	PrepMinutes *int
	CookMinutes *int

	// Vector is the stored ingredient embedding. Internal only; stripped
	// before results leave the retrieval core.
	Vector []float32
}

// TotalMinutes returns prep+cook minutes. ok is false when either time is
// unknown, which callers must treat as exceeding any finite budget.
func (r *Recipe) TotalMinutes() (int, bool) {
	if r.PrepMinutes == nil || r.CookMinutes == nil {
		return 0, false
	}
	return *r.PrepMinutes + *r.CookMinutes, true
}

// DedupKey is the identity used for deduplication: the ID when present,
// otherwise the name+times tuple.
func (r *Recipe) DedupKey() string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%s|%s|%s", r.Name, minutesKey(r.PrepMinutes), minutesKey(r.CookMinutes))
}

// WithoutVector returns a copy with the embedding stripped.
func (r Recipe) WithoutVector() Recipe {
	r.Vector = nil
	return r
}

func minutesKey(m *int) string {
	if m == nil {
		return "?"
	}
	return strconv.Itoa(*m)
}

// StripVectors removes embeddings from every recipe in the slice.
func StripVectors(recipes []Recipe) []Recipe {
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.WithoutVector()
	}
	return out
}
