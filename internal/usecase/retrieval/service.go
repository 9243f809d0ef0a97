package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
)

// Service runs the retrieval stages against the document store and the
// embedding oracle.
type Service struct {
	repo   Repository
	embed  Embedder
	logger *zap.Logger

	searchTimeout time.Duration
	oracleTimeout time.Duration
}

// New creates a retrieval service.
func New(repo Repository, embed Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, logger: logger}
}

// WithTimeouts puts a deadline on each document-store search and each
// embedding call. Zero leaves the corresponding calls unbounded.
func (s *Service) WithTimeouts(search, oracle time.Duration) *Service {
	s.searchTimeout = search
	s.oracleTimeout = oracle
	return s
}

// boundCtx derives a deadline-bounded context, or returns ctx as is
// when the timeout is zero.
func boundCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// Coverage runs lexical search into the greedy covering selection.
// poolSize bounds the lexical candidate pool; numResults bounds the
// selection. Returned recipes have vectors stripped.
func (s *Service) Coverage(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error) {
	pool, err := s.searchLexical(ctx, query, poolSize)
	if err != nil {
		return nil, fmt.Errorf("lexical candidates: %w", err)
	}

	selected := SelectCoveringSet(query, pool, numResults, maxTime)
	return recipe.StripVectors(selected), nil
}

// Hybrid embeds the query and runs the fused lexical+vector search,
// then time-filters, deduplicates, and trims to numResults.
func (s *Service) Hybrid(ctx context.Context, query string, numResults, maxTime int) ([]recipe.Recipe, error) {
	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	// Over-fetch so the time filter and dedup still leave enough.
	sctx, cancel := boundCtx(ctx, s.searchTimeout)
	candidates, err := s.repo.SearchHybrid(sctx, query, queryVec, 2*numResults)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("hybrid candidates: %w", err)
	}

	results := Deduplicate(FilterByMaxTime(candidates, maxTime))
	if len(results) > numResults {
		results = results[:numResults]
	}
	return recipe.StripVectors(results), nil
}

// CoverageHybrid runs the greedy covering selection with a pool-sized
// result cap, then reranks the whole covering set by vector similarity
// and keeps the topK. The covering set is deliberately not trimmed to
// numResults before the similarity stage.
func (s *Service) CoverageHybrid(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error) {
	pool, err := s.searchLexical(ctx, query, poolSize)
	if err != nil {
		return nil, fmt.Errorf("lexical candidates: %w", err)
	}

	covering := SelectCoveringSet(query, pool, poolSize, maxTime)
	if len(covering) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results := RerankBySimilarity(queryVec, covering, topK)
	if len(results) > numResults {
		results = results[:numResults]
	}
	return results, nil
}

func (s *Service) searchLexical(ctx context.Context, query string, poolSize int) ([]recipe.Recipe, error) {
	sctx, cancel := boundCtx(ctx, s.searchTimeout)
	defer cancel()
	return s.repo.SearchLexical(sctx, query, poolSize)
}

// embedQuery calls the embedding oracle and records token usage in the
// request's collector.
func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	octx, cancel := boundCtx(ctx, s.oracleTimeout)
	defer cancel()

	res, err := s.embed.Embed(octx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(res.TotalTokens)
	return res.Embedding, nil
}
