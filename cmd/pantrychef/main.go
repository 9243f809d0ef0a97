package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/config"
	"github.com/pantrychef-io/pantrychef/internal/db"
	dbRedis "github.com/pantrychef-io/pantrychef/internal/db/redis"
	"github.com/pantrychef-io/pantrychef/internal/domain"
	logpkg "github.com/pantrychef-io/pantrychef/internal/logger"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
	budgetrepo "github.com/pantrychef-io/pantrychef/internal/repository/budget"
	conversationsrepo "github.com/pantrychef-io/pantrychef/internal/repository/conversations"
	"github.com/pantrychef-io/pantrychef/internal/repository/embcache"
	recipesrepo "github.com/pantrychef-io/pantrychef/internal/repository/recipes"
	chiTransport "github.com/pantrychef-io/pantrychef/internal/transport/chi"
	openaiTransport "github.com/pantrychef-io/pantrychef/internal/transport/openai"
	"github.com/pantrychef-io/pantrychef/internal/usecase/answer"
	embeddinguc "github.com/pantrychef-io/pantrychef/internal/usecase/embedding"
	healthuc "github.com/pantrychef-io/pantrychef/internal/usecase/health"
	pipelineuc "github.com/pantrychef-io/pantrychef/internal/usecase/pipeline"
	rerankuc "github.com/pantrychef-io/pantrychef/internal/usecase/rerank"
	retrievaluc "github.com/pantrychef-io/pantrychef/internal/usecase/retrieval"
	"github.com/pantrychef-io/pantrychef/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pantrychef API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register oracle and pipeline metrics explicitly (no init())
	metrics.RegisterOracleMetrics()
	metrics.RegisterPipelineMetrics()

	recipes := recipesrepo.New(store)
	if err := recipes.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure recipe index", zap.Error(err))
	}

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: domain.EmbeddingDim,
		Logger:     logger,
	})
	embedder := buildEmbedder(baseEmbedder, cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.OpenAI.EmbeddingModel),
		zap.Int("dimensions", domain.EmbeddingDim),
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		DefaultModel: cfg.OpenAI.GenerationModel,
		Logger:       logger,
	})

	searchTimeout := time.Duration(cfg.Retrieval.SearchTimeoutSec) * time.Second
	oracleTimeout := time.Duration(cfg.Retrieval.OracleTimeoutSec) * time.Second

	retrievalSvc := retrievaluc.New(recipes, embedder, logger).
		WithTimeouts(searchTimeout, oracleTimeout)
	rerankSvc := rerankuc.New(generator, logger).WithTimeout(oracleTimeout)
	pipelineSvc := pipelineuc.New(retrievalSvc, rerankSvc, pipelineuc.Defaults{
		NumResults:  cfg.Retrieval.NumResults,
		PoolSize:    cfg.Retrieval.CandidatePoolSize,
		HybridTopK:  cfg.Retrieval.HybridTopK,
		RerankModel: cfg.OpenAI.GenerationModel,
	}, logger)
	answerSvc := answer.New(generator, cfg.OpenAI.GenerationModel, logger).
		WithTimeout(oracleTimeout)

	// Conversations are kept forever, matching the analytics use they serve.
	conversations := conversationsrepo.New(store, 0)

	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(
		pipelineSvc, answerSvc, conversations, healthSvc,
		cfg.OpenAI.GenerationModel, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	base domain.Embedder,
	cfg config.Config,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Single BudgetTracker persisting counters in the store.
	var budgetChecker embeddinguc.BudgetChecker
	budgetCfg := cfg.OpenAI.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		tracker := embeddinguc.NewBudgetTracker(
			budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
		tracker.WithStore(context.Background(), budgetStore)
		budgetChecker = tracker
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.OpenAI.EmbeddingModel, budgetChecker, logger,
	)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
