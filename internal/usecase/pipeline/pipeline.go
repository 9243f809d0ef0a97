// Package pipeline composes the retrieval stages into named strategies
// and carries the shared latency and token bookkeeping.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/domain"
	"github.com/pantrychef-io/pantrychef/internal/domain/recipe"
	"github.com/pantrychef-io/pantrychef/internal/domain/strategy"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
)

// Retriever is the stage provider consumed by the orchestrator.
type Retriever interface {
	Coverage(ctx context.Context, query string, numResults, maxTime, poolSize int) ([]recipe.Recipe, error)
	Hybrid(ctx context.Context, query string, numResults, maxTime int) ([]recipe.Recipe, error)
	CoverageHybrid(ctx context.Context, query string, numResults, maxTime, poolSize, topK int) ([]recipe.Recipe, error)
}

// Reranker is the external relevance-judge stage.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []recipe.Recipe, model string) ([]recipe.Recipe, error)
}

// Defaults hold per-deployment tuning applied when a request leaves a
// knob unset.
type Defaults struct {
	NumResults  int
	PoolSize    int
	HybridTopK  int
	RerankModel string
}

// Request is one pipeline invocation. Zero values fall back to the
// service defaults; MaxTime <= 0 means no time budget.
type Request struct {
	Query      string
	Strategy   strategy.Strategy
	NumResults int
	MaxTime    int
	PoolSize   int
}

// Result is the ordered recipe list plus per-call accounting.
type Result struct {
	Recipes  []recipe.Recipe
	Strategy strategy.Strategy
	Latency  time.Duration
	Usage    domain.Usage
}

// Service is the pipeline orchestrator.
type Service struct {
	retriever Retriever
	reranker  Reranker
	defaults  Defaults
	logger    *zap.Logger
}

// New creates a pipeline orchestrator.
func New(retriever Retriever, reranker Reranker, defaults Defaults, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		reranker:  reranker,
		defaults:  defaults,
		logger:    logger,
	}
}

// Run executes the requested strategy. An empty strategy falls back to
// the default; an unrecognized one fails without partial results.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	strat := req.Strategy
	if strat == "" {
		strat = strategy.Default
	}
	if !strat.IsValid() {
		return Result{}, fmt.Errorf("strategy %q: %w", string(strat), domain.ErrUnknownStrategy)
	}

	numResults := req.NumResults
	if numResults <= 0 {
		numResults = s.defaults.NumResults
	}
	poolSize := req.PoolSize
	if poolSize <= 0 {
		poolSize = s.defaults.PoolSize
	}

	// Reuse the caller's usage collector when present so the outer
	// request sees pipeline token spend; otherwise attach a fresh one.
	usage := domain.UsageFromContext(ctx)
	if usage == nil {
		ctx, usage = domain.NewContextWithUsage(ctx)
	}

	start := time.Now()

	recipes, err := s.runStrategy(ctx, strat, req.Query, numResults, req.MaxTime, poolSize)

	latency := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PipelineRequestsTotal.WithLabelValues(string(strat), status).Inc()
	metrics.PipelineDuration.WithLabelValues(string(strat)).Observe(latency.Seconds())

	if err != nil {
		return Result{}, fmt.Errorf("run %s pipeline: %w", strat, err)
	}

	metrics.PipelineResults.WithLabelValues(string(strat)).Observe(float64(len(recipes)))

	s.logger.Debug("Pipeline finished",
		zap.String("strategy", string(strat)),
		zap.Int("results", len(recipes)),
		zap.Duration("latency", latency))

	return Result{
		Recipes:  recipes,
		Strategy: strat,
		Latency:  latency,
		Usage:    *usage,
	}, nil
}

func (s *Service) runStrategy(
	ctx context.Context, strat strategy.Strategy,
	query string, numResults, maxTime, poolSize int,
) ([]recipe.Recipe, error) {
	switch strat {
	case strategy.Coverage:
		return s.retriever.Coverage(ctx, query, numResults, maxTime, poolSize)

	case strategy.Hybrid:
		return s.retriever.Hybrid(ctx, query, numResults, maxTime)

	case strategy.CoverageHybrid:
		return s.retriever.CoverageHybrid(ctx, query, numResults, maxTime, poolSize, s.topK(numResults))

	case strategy.Best:
		candidates, err := s.retriever.CoverageHybrid(ctx, query, numResults, maxTime, poolSize, s.topK(numResults))
		if err != nil {
			return nil, err
		}
		reranked, err := s.reranker.Rerank(ctx, query, candidates, s.defaults.RerankModel)
		if err != nil {
			return nil, err
		}
		if len(reranked) > numResults {
			reranked = reranked[:numResults]
		}
		return reranked, nil

	default:
		return nil, fmt.Errorf("strategy %q: %w", string(strat), domain.ErrUnknownStrategy)
	}
}

func (s *Service) topK(numResults int) int {
	if s.defaults.HybridTopK > 0 {
		return s.defaults.HybridTopK
	}
	return numResults
}
