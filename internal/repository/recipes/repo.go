package recipes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pantrychef-io/pantrychef/internal/db"
	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// store is the consumer interface for recipe persistence and search (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// returnFields lists every hash field a search should bring back,
// including the stored vector so lexical candidates can be reranked by
// similarity without a second round trip.
var returnFields = []string{
	"name", "main_ingredients", "all_ingredients", "instructions",
	"cuisine_type", "meal_type", "difficulty", "dietary_restrictions",
	"prep_minutes", "cook_minutes", "vector",
}

// Repo implements the recipe document store over a RediSearch backend.
type Repo struct {
	store store
}

// New creates a recipe repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert stores a single recipe hash.
func (r *Repo) Upsert(ctx context.Context, rec *recipe.Recipe) error {
	if rec.ID == "" {
		return fmt.Errorf("recipe id is required")
	}
	if err := r.store.HSet(ctx, keyPrefix+rec.ID, buildHashFields(rec)); err != nil {
		return fmt.Errorf("upsert recipe %s: %w", rec.ID, err)
	}
	return nil
}

// UpsertMulti stores a batch of recipes in one pipelined round trip.
func (r *Repo) UpsertMulti(ctx context.Context, recs []recipe.Recipe) error {
	if len(recs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(recs))
	for i := range recs {
		if recs[i].ID == "" {
			return fmt.Errorf("recipe at index %d has no id", i)
		}
		items = append(items, db.HashSetItem{
			Key:    keyPrefix + recs[i].ID,
			Fields: buildHashFields(&recs[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d recipes: %w", len(recs), err)
	}
	return nil
}

// Get fetches a single recipe by id.
func (r *Repo) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+id)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("get recipe %s: %w", id, err)
	}
	if len(fields) == 0 {
		return recipe.Recipe{}, fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	return parseHashFields(id, fields), nil
}

// SearchLexical runs a weighted BM25 query over the recipe TEXT fields
// and returns up to topK recipes in rank order, vectors included.
func (r *Repo) SearchLexical(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    IndexName,
		Query:        query,
		TopK:         topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search lexical: %w", err)
	}
	return parseEntries(sr), nil
}

// SearchKNN runs a vector similarity query and returns up to k recipes
// in rank order.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]recipe.Recipe, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return parseEntries(sr), nil
}

// SearchHybrid runs lexical and vector search and fuses the two rankings
// via Reciprocal Rank Fusion, returning up to topK recipes.
func (r *Repo) SearchHybrid(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
	lexical, err := r.SearchLexical(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	knn, err := r.SearchKNN(ctx, vector, topK)
	if err != nil {
		return nil, err
	}
	return fuseRRF(knn, lexical, topK), nil
}

// parseEntries converts search hits into recipes, preserving rank order.
func parseEntries(sr *db.SearchResult) []recipe.Recipe {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]recipe.Recipe, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		out = append(out, parseHashFields(id, entry.Fields))
	}
	return out
}

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges KNN and lexical rankings via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) for each ranking where d appears.
func fuseRRF(knn, lexical []recipe.Recipe, topK int) []recipe.Recipe {
	type scored struct {
		rec   recipe.Recipe
		score float64
		order int
	}

	merged := make(map[string]*scored)
	order := 0

	add := func(list []recipe.Recipe) {
		for rank := range list {
			s := 1.0 / float64(rrfK+rank+1)
			key := list[rank].DedupKey()
			if existing, ok := merged[key]; ok {
				existing.score += s
				continue
			}
			merged[key] = &scored{rec: list[rank], score: s, order: order}
			order++
		}
	}
	add(knn)
	add(lexical)

	fused := make([]*scored, 0, len(merged))
	for _, s := range merged {
		fused = append(fused, s)
	}
	// Stable outcome for equal scores: first-seen wins.
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].order < fused[j].order
	})

	if len(fused) > topK {
		fused = fused[:topK]
	}

	out := make([]recipe.Recipe, 0, len(fused))
	for _, s := range fused {
		out = append(out, s.rec)
	}
	return out
}
