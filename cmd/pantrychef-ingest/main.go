// Command pantrychef-ingest loads a recipes CSV into the document store,
// embedding ingredient lists along the way.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pantrychef-io/pantrychef/internal/config"
	dbRedis "github.com/pantrychef-io/pantrychef/internal/db/redis"
	"github.com/pantrychef-io/pantrychef/internal/domain"
	logpkg "github.com/pantrychef-io/pantrychef/internal/logger"
	"github.com/pantrychef-io/pantrychef/internal/metrics"
	recipesrepo "github.com/pantrychef-io/pantrychef/internal/repository/recipes"
	openaiTransport "github.com/pantrychef-io/pantrychef/internal/transport/openai"
	embeddinguc "github.com/pantrychef-io/pantrychef/internal/usecase/embedding"
	"github.com/pantrychef-io/pantrychef/internal/usecase/ingest"
	"github.com/pantrychef-io/pantrychef/internal/version"
)

func main() {
	var (
		file      = flag.String("file", "data/recipes.csv", "path to the recipes CSV")
		batchSize = flag.Int("batch", 100, "recipes embedded and stored per batch")
	)
	flag.Parse()

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

	logger.Info("Starting pantrychef ingestion",
		zap.String("version", version.Version),
		zap.String("file", *file),
		zap.Int("batch_size", *batchSize),
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

	metrics.RegisterOracleMetrics()

	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: domain.EmbeddingDim,
		Logger:     logger,
	})
	// No cache layer: ingestion texts are unique, batched straight through.
	embedder := embeddinguc.NewInstrumentedEmbedder(base, cfg.OpenAI.EmbeddingModel, nil, logger)

	recipes := recipesrepo.New(store)
	svc := ingest.New(recipes, embedder, *batchSize, logger)

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("Failed to open recipes file", zap.Error(err))
	}
	defer f.Close()

	count, err := svc.Run(ctx, f)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err), zap.Int("stored", count))
	}

	logger.Info("Ingestion finished", zap.Int("recipes_stored", count))
}
