package recipes

import (
	"context"
	"errors"
	"fmt"

	"github.com/pantrychef-io/pantrychef/internal/db"
	"github.com/pantrychef-io/pantrychef/internal/domain"
)

const (
	// IndexName is the FT index over recipe hashes.
	IndexName = domain.KeyPrefix + "recipe:idx"
	// keyPrefix is the hash key prefix for stored recipes.
	keyPrefix = domain.KeyPrefix + "recipe:"
)

// indexDefinition builds the recipe FT schema. TEXT weights mirror the
// relative importance of each field in lexical ranking: the full
// ingredient list dominates, then main ingredients, then instructions
// and dietary restrictions, with name and cuisine at base weight.
func indexDefinition() *db.IndexDefinition {
	return db.NewIndex(IndexName).
		Prefix(keyPrefix).
		TextWeighted("all_ingredients", 3).
		TextWeighted("main_ingredients", 2).
		TextWeighted("instructions", 1.5).
		TextWeighted("dietary_restrictions", 1.5).
		Text("name").
		Text("cuisine_type").
		Tag("meal_type").
		Tag("difficulty").
		Numeric("prep_minutes").
		Numeric("cook_minutes").
		VectorHNSW("vector", domain.EmbeddingDim, db.DistanceCosine, 16, 200).
		MustBuild()
}

// EnsureIndex creates the recipe index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	err := r.store.CreateIndex(ctx, indexDefinition())
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create recipe index: %w", err)
	}
	return nil
}
