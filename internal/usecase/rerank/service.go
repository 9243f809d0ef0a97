// Package rerank asks a text-generation oracle to order candidate
// recipes by relevance and maps the returned names back onto documents.
package rerank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

const promptTemplate = `Given the following user query and candidate recipes, rank the recipes from most to least relevant.

Query: %s

Candidates:
%s

Return a JSON list of recipe names in ranked order.`

// Service is the external rerank adapter.
type Service struct {
	gen     domain.Generator
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a rerank service.
func New(gen domain.Generator, logger *zap.Logger) *Service {
	return &Service{gen: gen, logger: logger}
}

// WithTimeout puts a deadline on each oracle call. Zero leaves calls
// unbounded.
func (s *Service) WithTimeout(timeout time.Duration) *Service {
	s.timeout = timeout
	return s
}

// Rerank sends candidate summaries to the generation oracle and returns
// the candidates in the oracle's order. Names the oracle invents are
// dropped; candidates the oracle omits are dropped; the oracle's
// ordering is authoritative. Unparseable output degrades to the input
// order. Empty input short-circuits without an oracle call.
func (s *Service) Rerank(ctx context.Context, query string, candidates []recipe.Recipe, model string) ([]recipe.Recipe, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := buildPrompt(query, candidates)

	octx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		octx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.gen.Generate(octx, prompt, model)
	if err != nil {
		return nil, fmt.Errorf("rerank oracle: %w", err)
	}

	names, ok := extractRankedNames(result.Text)
	if !ok {
		s.logger.Warn("Rerank output not parseable, keeping input order",
			zap.String("model", model))
		return candidates, nil
	}

	return mapNamesToRecipes(names, candidates), nil
}

// buildPrompt joins one compact summary per candidate into the ranking
// instruction.
func buildPrompt(query string, candidates []recipe.Recipe) string {
	summaries := make([]string, 0, len(candidates))
	for _, c := range candidates {
		summaries = append(summaries,
			fmt.Sprintf("Recipe: %s\nIngredients: %s", c.Name, c.MainIngredients))
	}
	return fmt.Sprintf(promptTemplate, query, strings.Join(summaries, "\n\n"))
}

// mapNamesToRecipes resolves ranked names back to documents by exact
// name match, preserving the ranked order. Duplicate candidate names
// all map in their input order under the shared name.
func mapNamesToRecipes(names []string, candidates []recipe.Recipe) []recipe.Recipe {
	byName := make(map[string][]recipe.Recipe, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = append(byName[c.Name], c)
	}

	out := make([]recipe.Recipe, 0, len(candidates))
	for _, name := range names {
		out = append(out, byName[name]...)
		delete(byName, name)
	}
	return out
}
