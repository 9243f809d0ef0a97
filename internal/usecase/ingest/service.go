// Package ingest loads recipe CSV exports into the document store,
// embedding each recipe's ingredient text along the way.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// Store is the persistence capability the ingester consumes.
type Store interface {
	EnsureIndex(ctx context.Context) error
	UpsertMulti(ctx context.Context, recs []recipe.Recipe) error
}

// Service reads recipe CSVs, embeds them in batches, and upserts them.
type Service struct {
	store     Store
	embedder  domain.BatchEmbedder
	batchSize int
	logger    *zap.Logger
}

// New creates an ingestion service. batchSize bounds how many recipes
// are embedded and written per round trip.
func New(store Store, embedder domain.BatchEmbedder, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{store: store, embedder: embedder, batchSize: batchSize, logger: logger}
}

// Run ingests the whole CSV stream. Returns the number of recipes stored.
func (s *Service) Run(ctx context.Context, r io.Reader) (int, error) {
	if err := s.store.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	recs, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}

	total := 0
	for offset := 0; offset < len(recs); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(recs) {
			end = len(recs)
		}
		batch := recs[offset:end]

		if err := s.embedBatch(ctx, batch); err != nil {
			return total, fmt.Errorf("embed batch at %d: %w", offset, err)
		}
		if err := s.store.UpsertMulti(ctx, batch); err != nil {
			return total, fmt.Errorf("store batch at %d: %w", offset, err)
		}

		total += len(batch)
		s.logger.Info("Ingested batch",
			zap.Int("offset", offset),
			zap.Int("size", len(batch)),
			zap.Int("total", total))
	}

	return total, nil
}

// embedBatch fills in each recipe's vector from its full ingredient
// text. Vectors are unit-normalized so downstream dot products behave
// as cosine similarity.
func (s *Service) embedBatch(ctx context.Context, batch []recipe.Recipe) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].AllIngredients
	}

	result, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return err
	}
	if len(result.Embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d vectors",
			len(batch), len(result.Embeddings))
	}

	for i := range batch {
		batch[i].Vector = normalize(result.Embeddings[i])
	}
	return nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// csv column names as exported by the cleaning step.
var requiredColumns = []string{"id", "recipe_name", "all_ingredients"}

// ReadCSV parses a recipe CSV with a header row into recipes. Rows
// missing an id or name are skipped.
func ReadCSV(r io.Reader) ([]recipe.Recipe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var recs []recipe.Recipe
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec := recipe.Recipe{
			ID:                  field(row, "id"),
			Name:                field(row, "recipe_name"),
			MainIngredients:     field(row, "main_ingredients"),
			AllIngredients:      field(row, "all_ingredients"),
			Instructions:        field(row, "instructions"),
			CuisineType:         field(row, "cuisine_type"),
			MealType:            field(row, "meal_type"),
			Difficulty:          field(row, "difficulty_level"),
			DietaryRestrictions: field(row, "dietary_restrictions"),
			PrepMinutes:         parseMinutes(field(row, "prep_time_minutes")),
			CookMinutes:         parseMinutes(field(row, "cook_time_minutes")),
		}
		if rec.ID == "" || rec.Name == "" {
			continue
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// parseMinutes returns nil for missing or unparsable values so unknown
// times stay out of time-budget filtering.
func parseMinutes(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
