package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

func TestCoverage_SearchesWithPoolSize(t *testing.T) {
	svc, repo, _ := newTestService(t)

	var gotTopK int
	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		gotTopK = topK
		return []recipe.Recipe{doc("1", "shrimp rice")}, nil
	}

	got, err := svc.Coverage(context.Background(), "shrimp rice", 5, 0, 200)
	if err != nil {
		t.Fatalf("Coverage failed: %v", err)
	}
	if gotTopK != 200 {
		t.Errorf("expected pool size 200, got %d", gotTopK)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestCoverage_SearchErrorPropagates(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		return nil, errors.New("index down")
	}

	if _, err := svc.Coverage(context.Background(), "shrimp", 5, 0, 200); err == nil {
		t.Fatal("expected error from failing search")
	}
}

func TestCoverage_StripsVectors(t *testing.T) {
	svc, repo, _ := newTestService(t)

	d := doc("1", "shrimp")
	d.Vector = []float32{1, 2, 3}
	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		return []recipe.Recipe{d}, nil
	}

	got, err := svc.Coverage(context.Background(), "shrimp", 5, 0, 200)
	if err != nil {
		t.Fatalf("Coverage failed: %v", err)
	}
	if got[0].Vector != nil {
		t.Error("coverage results must not carry vectors")
	}
}

func TestHybrid_OverFetchesAndTrims(t *testing.T) {
	svc, repo, emb := newTestService(t)

	var gotTopK int
	repo.searchHybridFn = func(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
		gotTopK = topK
		return []recipe.Recipe{
			doc("1", "a"), doc("2", "b"), doc("3", "c"), doc("4", "d"),
		}, nil
	}

	got, err := svc.Hybrid(context.Background(), "dinner", 2, 0)
	if err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}
	if gotTopK != 4 {
		t.Errorf("expected over-fetch of 2*N=4, got %d", gotTopK)
	}
	if len(got) != 2 {
		t.Fatalf("expected trim to 2, got %d", len(got))
	}
	if emb.calls != 1 {
		t.Errorf("expected 1 embedding call, got %d", emb.calls)
	}
}

func TestHybrid_EmbedErrorPropagates(t *testing.T) {
	svc, _, emb := newTestService(t)
	emb.err = errors.New("quota")

	if _, err := svc.Hybrid(context.Background(), "dinner", 5, 0); err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestHybrid_TimeFilterApplies(t *testing.T) {
	svc, repo, _ := newTestService(t)

	slow := doc("slow", "x")
	slow.CookMinutes = intPtr(300)
	repo.searchHybridFn = func(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
		return []recipe.Recipe{slow, doc("fast", "y")}, nil
	}

	got, err := svc.Hybrid(context.Background(), "dinner", 5, 60)
	if err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "fast" {
		t.Fatalf("expected time filter applied, got %+v", got)
	}
}

func TestCoverageHybrid_FeedsFullCoveringSetToSimilarity(t *testing.T) {
	svc, repo, _ := newTestService(t)

	// Three recipes each covering a distinct token. With query vector
	// [1,0] the similarity stage must reorder the covering set.
	a := doc("a", "shrimp")
	a.Vector = []float32{0, 1}
	b := doc("b", "rice")
	b.Vector = []float32{1, 0}
	c := doc("c", "lime")
	c.Vector = []float32{0.5, 0.5}

	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		return []recipe.Recipe{a, b, c}, nil
	}

	got, err := svc.CoverageHybrid(context.Background(), "shrimp rice lime", 2, 0, 200, 5)
	if err != nil {
		t.Fatalf("CoverageHybrid failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("expected similarity order b, c; got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestCoverageHybrid_EmptyCoveringSkipsEmbedding(t *testing.T) {
	svc, repo, emb := newTestService(t)

	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		return nil, nil
	}

	got, err := svc.CoverageHybrid(context.Background(), "shrimp", 5, 0, 200, 5)
	if err != nil {
		t.Fatalf("CoverageHybrid failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if emb.calls != 0 {
		t.Errorf("embedding oracle must not be called for empty covering set, got %d calls", emb.calls)
	}
}

func TestEmbedQuery_RecordsUsage(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.searchHybridFn = func(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
		return nil, nil
	}

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Hybrid(ctx, "dinner", 5, 0); err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}
	if usage.EmbeddingTokens != 4 {
		t.Errorf("expected 4 embedding tokens recorded, got %d", usage.EmbeddingTokens)
	}
}

func TestWithTimeouts_BoundsSearchAndEmbedCalls(t *testing.T) {
	svc, repo, emb := newTestService(t)
	svc.WithTimeouts(5*time.Second, time.Second)

	var lexicalCtx, hybridCtx context.Context
	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		lexicalCtx = ctx
		return []recipe.Recipe{doc("1", "shrimp rice")}, nil
	}
	repo.searchHybridFn = func(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
		hybridCtx = ctx
		return nil, nil
	}

	if _, err := svc.Coverage(context.Background(), "shrimp", 5, 0, 10); err != nil {
		t.Fatalf("Coverage failed: %v", err)
	}
	if _, ok := lexicalCtx.Deadline(); !ok {
		t.Error("lexical search context carries no deadline")
	}

	if _, err := svc.Hybrid(context.Background(), "shrimp", 5, 0); err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}
	if _, ok := hybridCtx.Deadline(); !ok {
		t.Error("hybrid search context carries no deadline")
	}
	if _, ok := emb.lastCtx.Deadline(); !ok {
		t.Error("embedding context carries no deadline")
	}
}

func TestWithTimeouts_ZeroLeavesCallsUnbounded(t *testing.T) {
	svc, repo, emb := newTestService(t)

	var lexicalCtx context.Context
	repo.searchLexicalFn = func(ctx context.Context, query string, topK int) ([]recipe.Recipe, error) {
		lexicalCtx = ctx
		return []recipe.Recipe{doc("1", "shrimp rice")}, nil
	}
	repo.searchHybridFn = func(ctx context.Context, query string, vector []float32, topK int) ([]recipe.Recipe, error) {
		return nil, nil
	}

	if _, err := svc.Coverage(context.Background(), "shrimp", 5, 0, 10); err != nil {
		t.Fatalf("Coverage failed: %v", err)
	}
	if _, ok := lexicalCtx.Deadline(); ok {
		t.Error("lexical search context must have no deadline without timeouts")
	}

	if _, err := svc.Hybrid(context.Background(), "shrimp", 5, 0); err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}
	if _, ok := emb.lastCtx.Deadline(); ok {
		t.Error("embedding context must have no deadline without timeouts")
	}
}
