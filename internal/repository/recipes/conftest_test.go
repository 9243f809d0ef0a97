package recipes

import (
	"context"
	"testing"

	"github.com/pantrychef-io/pantrychef/internal/db"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func intPtr(n int) *int { return &n }

func testRecipe(id, name string) recipe.Recipe {
	return recipe.Recipe{
		ID:              id,
		Name:            name,
		MainIngredients: "chicken, rice",
		AllIngredients:  "chicken, rice, garlic, onion",
		Instructions:    "cook everything",
		CuisineType:     "thai",
		MealType:        "dinner",
		Difficulty:      "easy",
		PrepMinutes:     intPtr(10),
		CookMinutes:     intPtr(25),
		Vector:          []float32{0.1, 0.2, 0.3},
	}
}

// entryFor builds a search hit from a recipe the way the db layer would
// return it.
func entryFor(r recipe.Recipe) db.SearchEntry {
	return db.SearchEntry{
		Key:    keyPrefix + r.ID,
		Score:  1,
		Fields: buildHashFields(&r),
	}
}
