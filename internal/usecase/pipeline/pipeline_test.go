package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
	"github.com/pantrychef-io/pantrychef/internal/domain/strategy"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// mockRetriever implements Retriever for tests.
type mockRetriever struct {
	coverageFn       func(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error)
	hybridFn         func(ctx context.Context, query string, numResults, maxTime int) ([]recipe.Recipe, error)
	coverageHybridFn func(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error)
}

func (m *mockRetriever) Coverage(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error) {
	if m.coverageFn != nil {
		return m.coverageFn(ctx, query, numResults, maxTime, poolSize)
	}
	return nil, nil
}

func (m *mockRetriever) Hybrid(ctx context.Context, query string, numResults, maxTime int) ([]recipe.Recipe, error) {
	if m.hybridFn != nil {
		return m.hybridFn(ctx, query, numResults, maxTime)
	}
	return nil, nil
}

func (m *mockRetriever) CoverageHybrid(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error) {
	if m.coverageHybridFn != nil {
		return m.coverageHybridFn(ctx, query, numResults, maxTime, poolSize, topK)
	}
	return nil, nil
}

// mockReranker implements Reranker for tests.
type mockReranker struct {
	rerankFn func(ctx context.Context, query string, candidates []recipe.Recipe, model string) ([]recipe.Recipe, error)
	calls    int
}

func (m *mockReranker) Rerank(ctx context.Context, query string, candidates []recipe.Recipe, model string) ([]recipe.Recipe, error) {
	m.calls++
	if m.rerankFn != nil {
		return m.rerankFn(ctx, query, candidates, model)
	}
	return candidates, nil
}

func newTestPipeline(t *testing.T) (*Service, *mockRetriever, *mockReranker) {
	t.Helper()
	ret := &mockRetriever{}
	rr := &mockReranker{}
	svc := New(ret, rr, Defaults{
		NumResults:  5,
		PoolSize:    200,
		HybridTopK:  5,
		RerankModel: "gpt-4o-mini",
	}, zap.NewNop())
	return svc, ret, rr
}

func recipes(ids ...string) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(ids))
	for _, id := range ids {
		out = append(out, recipe.Recipe{ID: id, Name: "recipe " + id})
	}
	return out
}

func TestRun_UnknownStrategy(t *testing.T) {
	svc, _, _ := newTestPipeline(t)

	_, err := svc.Run(context.Background(), Request{Query: "q", Strategy: "bogus"})
	if !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestRun_EmptyStrategyUsesDefault(t *testing.T) {
	svc, ret, rr := newTestPipeline(t)

	ret.coverageHybridFn = func(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error) {
		return recipes("a"), nil
	}

	result, err := svc.Run(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Strategy != strategy.Best {
		t.Errorf("expected default strategy %s, got %s", strategy.Best, result.Strategy)
	}
	if rr.calls != 1 {
		t.Errorf("best strategy must invoke the reranker, got %d calls", rr.calls)
	}
}

func TestRun_CoverageStrategy(t *testing.T) {
	svc, ret, rr := newTestPipeline(t)

	var gotPool, gotNum int
	ret.coverageFn = func(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error) {
		gotNum, gotPool = numResults, poolSize
		return recipes("a", "b"), nil
	}

	result, err := svc.Run(context.Background(), Request{Query: "q", Strategy: strategy.Coverage})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if gotNum != 5 || gotPool != 200 {
		t.Errorf("defaults not applied: numResults=%d poolSize=%d", gotNum, gotPool)
	}
	if len(result.Recipes) != 2 {
		t.Errorf("expected 2 recipes, got %d", len(result.Recipes))
	}
	if rr.calls != 0 {
		t.Errorf("coverage strategy must not invoke the reranker")
	}
}

func TestRun_HybridStrategy(t *testing.T) {
	svc, ret, _ := newTestPipeline(t)

	ret.hybridFn = func(ctx context.Context, query string, numResults, maxTime int) ([]recipe.Recipe, error) {
		if maxTime != 45 {
			t.Errorf("expected maxTime 45, got %d", maxTime)
		}
		return recipes("a"), nil
	}

	result, err := svc.Run(context.Background(), Request{Query: "q", Strategy: strategy.Hybrid, MaxTime: 45})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Recipes) != 1 {
		t.Errorf("expected 1 recipe, got %d", len(result.Recipes))
	}
}

func TestRun_BestTrimsRerankedToNumResults(t *testing.T) {
	svc, ret, rr := newTestPipeline(t)

	ret.coverageHybridFn = func(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error) {
		return recipes("a", "b", "c"), nil
	}
	rr.rerankFn = func(ctx context.Context, query string, candidates []recipe.Recipe, model string) ([]recipe.Recipe, error) {
		if model != "gpt-4o-mini" {
			t.Errorf("unexpected model: %s", model)
		}
		return candidates, nil
	}

	result, err := svc.Run(context.Background(), Request{Query: "q", Strategy: strategy.Best, NumResults: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Recipes) != 2 {
		t.Errorf("expected trim to 2, got %d", len(result.Recipes))
	}
}

func TestRun_StageErrorReturnsNoPartialResult(t *testing.T) {
	svc, ret, _ := newTestPipeline(t)

	ret.coverageHybridFn = func(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error) {
		return nil, errors.New("search down")
	}

	result, err := svc.Run(context.Background(), Request{Query: "q", Strategy: strategy.Best})
	if err == nil {
		t.Fatal("expected error from failing stage")
	}
	if result.Recipes != nil {
		t.Errorf("expected no partial results, got %+v", result.Recipes)
	}
}

func TestRun_MeasuresLatencyAndUsage(t *testing.T) {
	svc, ret, _ := newTestPipeline(t)

	ret.coverageFn = func(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error) {
		domain.UsageFromContext(ctx).AddEmbeddingTokens(7)
		return recipes("a"), nil
	}

	result, err := svc.Run(context.Background(), Request{Query: "q", Strategy: strategy.Coverage})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Latency <= 0 {
		t.Error("expected positive latency")
	}
	if result.Usage.EmbeddingTokens != 7 {
		t.Errorf("expected 7 embedding tokens in usage, got %d", result.Usage.EmbeddingTokens)
	}
}

func TestRun_ReusesCallerUsageCollector(t *testing.T) {
	svc, ret, _ := newTestPipeline(t)

	ret.coverageFn = func(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error) {
		domain.UsageFromContext(ctx).AddEmbeddingTokens(3)
		return nil, nil
	}

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Run(ctx, Request{Query: "q", Strategy: strategy.Coverage}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if usage.EmbeddingTokens != 3 {
		t.Errorf("caller collector not reused: %d", usage.EmbeddingTokens)
	}
}

func TestRun_EmptyResultIsNotAnError(t *testing.T) {
	svc, ret, _ := newTestPipeline(t)

	ret.coverageFn = func(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error) {
		return nil, nil
	}

	result, err := svc.Run(context.Background(), Request{Query: "obscure", Strategy: strategy.Coverage})
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(result.Recipes) != 0 {
		t.Errorf("expected empty result, got %+v", result.Recipes)
	}
}
