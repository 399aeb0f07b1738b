// Package app is the composition root shared by the server and the ops CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	dbRedis "github.com/kailas-cloud/docqa/internal/db/redis"
	"github.com/kailas-cloud/docqa/internal/db/sqlite"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/repository/chunk"
	"github.com/kailas-cloud/docqa/internal/repository/embcache"
	"github.com/kailas-cloud/docqa/internal/repository/model"
	"github.com/kailas-cloud/docqa/internal/repository/vector"
	openaiEmb "github.com/kailas-cloud/docqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	askuc "github.com/kailas-cloud/docqa/internal/usecase/ask"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/docqa/internal/usecase/indexing"
	"github.com/kailas-cloud/docqa/internal/usecase/rerank"
	retrievaluc "github.com/kailas-cloud/docqa/internal/usecase/retrieval"
	traininguc "github.com/kailas-cloud/docqa/internal/usecase/training"
)

// App holds the wired services.
type App struct {
	Config config.Config
	Logger *zap.Logger

	Store   *dbRedis.Store
	ChunkDB *sqlite.DB
	Chunks  *chunk.Repo
	Vectors *vector.Repo

	Provider      *openaiEmb.Embedder
	DocEmbedder   domain.Embedder
	QueryEmbedder domain.Embedder

	Reranker  *rerank.Reranker
	Retrieval *retrievaluc.Service
	Ask       *askuc.Service
	Health    *healthuc.Service
	Indexing  *indexinguc.Service
	Training  *traininguc.Service
}

// New connects the stores and builds every service. The caller must Close the App.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}
	a.Store = store

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		a.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to vector store",
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("addrs", cfg.Database.Addrs),
	)

	chunkDB, err := sqlite.Open(ctx, cfg.Chunks.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	a.ChunkDB = chunkDB
	a.Chunks = chunk.New(chunkDB.Conn())

	a.Vectors = vector.New(store, vector.Config{
		IndexName:      cfg.Index.Name,
		KeyPrefix:      cfg.Index.KeyPrefix,
		Dimensions:     cfg.Embedding.Dimensions,
		M:              cfg.Index.HNSWM,
		EFConstruction: cfg.Index.HNSWEFConstruct,
	})

	if err := a.buildEmbedders(); err != nil {
		a.Close()
		return nil, err
	}

	fit := relevance.DefaultFitOptions()
	fit.MaxIter = cfg.Reranker.MaxIter
	fit.L2 = *cfg.Reranker.L2

	boot, err := rerank.NewBootstrapper(cfg.Reranker.Bootstrap, fit)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("reranker: %w", err)
	}
	models := model.NewFileStore(cfg.Reranker.ModelPath)
	a.Reranker = rerank.New(models, boot, logger)
	if err := a.Reranker.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Retrieval, err = retrievaluc.New(a.Vectors, a.Chunks, a.QueryEmbedder, a.Reranker, retrievaluc.Config{
		Alpha:       *cfg.Retrieval.Alpha,
		LexicalPool: cfg.Retrieval.LexicalPool,
		Timeout:     cfg.Retrieval.Timeout(),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("retrieval: %w", err)
	}

	extractor := answeruc.New(a.DocEmbedder, answeruc.Config{
		Threshold:       *cfg.Answer.Threshold,
		MaxContextChars: cfg.Answer.MaxContextChars,
	})
	a.Ask = askuc.New(a.Retrieval, extractor, askuc.Config{
		DefaultTopK: cfg.Retrieval.DefaultTopK,
		MaxTopK:     cfg.Retrieval.MaxTopK,
	})
	a.Health = healthuc.New(store, a.Chunks, a.Provider, a.Reranker)

	a.Indexing = indexinguc.New(a.Chunks, a.Vectors, a.DocEmbedder, indexinguc.Config{
		BatchSize:         cfg.Embedding.BatchSize,
		Workers:           cfg.Embedding.Workers,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Burst:             cfg.Embedding.Burst,
	}, logger)
	a.Training = traininguc.New(a.Retrieval, models, traininguc.Config{Fit: fit}, logger)

	return a, nil
}

// buildEmbedders assembles the decorator chain: provider -> cache -> instrumented -> instruction (queries only).
func (a *App) buildEmbedders() error {
	cfg := a.Config.Embedding

	a.Provider = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     a.Logger,
	})

	cached, err := embcache.New(
		a.Provider, a.Store, embcache.Namespace(cfg.Model, cfg.Dimensions),
		cfg.CacheSize, metrics.EmbeddingCacheTotal, a.Logger,
	)
	if err != nil {
		return fmt.Errorf("embedding cache: %w", err)
	}

	doc := embeddinguc.NewInstrumentedEmbedder(cached, cfg.Provider, cfg.Model, a.Logger).
		WithBatchSize(cfg.BatchSize)
	a.DocEmbedder = doc
	a.QueryEmbedder = doc
	if cfg.QueryInstruction != "" {
		a.QueryEmbedder = domain.NewInstructionEmbedder(doc, cfg.QueryInstruction)
	}

	a.Logger.Info("Embedders created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
	)
	return nil
}

// Close releases the stores.
func (a *App) Close() {
	if a.ChunkDB != nil {
		if err := a.ChunkDB.Close(); err != nil {
			a.Logger.Warn("Failed to close chunk store", zap.Error(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
