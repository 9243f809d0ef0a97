package retrieval

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// mockRepository implements Repository for tests.
type mockRepository struct {
	searchLexicalFn func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error)
	searchHybridFn  func(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error)
}

func (m *mockRepository) SearchLexical(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
	if m.searchLexicalFn != nil {
		return m.searchLexicalFn(ctx, query, topK)
	}
	return nil, nil
}

func (m *mockRepository) SearchHybrid(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
	if m.searchHybridFn != nil {
		return m.searchHybridFn(ctx, query, vector, topK)
	}
	return nil, nil
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	result  domain.EmbeddingResult
	err     error
	calls   int
	lastCtx context.Context
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastCtx = ctx
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *mockEmbedder) {
	t.Helper()
	repo := &mockRepository{}
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 4}}
	return New(repo, emb, zap.NewNop()), repo, emb
}

func intPtr(n int) *int { return &n }

func doc(id, allIngredients string) recipe.Recipe {
	return recipe.Recipe{
		ID:             id,
		Name:           "recipe " + id,
		AllIngredients: allIngredients,
		PrepMinutes:    intPtr(10),
		CookMinutes:    intPtr(10),
	}
}
