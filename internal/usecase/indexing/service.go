// Package indexing rebuilds both retrieval indexes from a set of passages.
package indexing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// Defaults for Config.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// Config tunes the embedding fan-out.
type Config struct {
	BatchSize int
	Workers   int
	// RequestsPerSecond caps embedding API calls. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int
}

// Report summarizes one rebuild.
type Report struct {
	Passages int
	Batches  int
	Tokens   int
	Duration time.Duration
}

// Service rebuilds the chunk store and the vector index.
type Service struct {
	chunks  ChunkWriter
	vectors VectorWriter
	embed   domain.Embedder
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New creates an indexing service.
func New(chunks ChunkWriter, vectors VectorWriter, embed domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chunks:  chunks,
		vectors: vectors,
		embed:   embed,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cfg:     cfg,
		logger:  logger,
	}
}

// Rebuild replaces both indexes with passages. It is a full rebuild: the chunk
// table is emptied and the vector index recreated before writing.
func (s *Service) Rebuild(ctx context.Context, passages []passage.Passage) (Report, error) {
	start := time.Now()
	for i := range passages {
		if err := passages[i].Validate(); err != nil {
			return Report{}, fmt.Errorf("passage %d: %w", passages[i].ID, err)
		}
	}

	if err := s.chunks.Reset(ctx); err != nil {
		return Report{}, fmt.Errorf("reset chunk store: %w", err)
	}
	if err := s.chunks.InsertBatch(ctx, passages); err != nil {
		return Report{}, fmt.Errorf("insert passages: %w", err)
	}
	s.logger.Info("Chunk store rebuilt", zap.Int("passages", len(passages)))

	if err := s.vectors.Recreate(ctx); err != nil {
		return Report{}, fmt.Errorf("recreate vector index: %w", err)
	}

	batches := split(passages, s.cfg.BatchSize)
	tokens, err := s.embedAll(ctx, batches)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		Passages: len(passages),
		Batches:  len(batches),
		Tokens:   tokens,
		Duration: time.Since(start),
	}
	s.logger.Info("Vector index rebuilt",
		zap.Int("passages", rep.Passages),
		zap.Int("batches", rep.Batches),
		zap.Int("tokens", rep.Tokens),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// embedAll embeds and upserts batches on a bounded worker pool.
// The first failure cancels the remaining work.
func (s *Service) embedAll(ctx context.Context, batches [][]passage.Passage) (int, error) {
	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		tokens   atomic.Int64
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, batch := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			n, err := s.embedBatch(ctx, batch)
			if err != nil {
				fail(fmt.Errorf("batch %d: %w", i, err))
				return
			}
			tokens.Add(int64(n))
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch %d: %w", i, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	return int(tokens.Load()), nil
}

func (s *Service) embedBatch(ctx context.Context, batch []passage.Passage) (int, error) {
	waitStart := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}
	metrics.EmbeddingThrottleWaitSeconds.Observe(time.Since(waitStart).Seconds())

	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content
	}
	res, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}

	records := make([]passage.Embedded, len(batch))
	for i := range batch {
		records[i] = passage.Embedded{Passage: batch[i], Vector: res.Embeddings[i]}
	}
	if err := s.vectors.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return res.TotalTokens, nil
}

func split(passages []passage.Passage, size int) [][]passage.Passage {
	var out [][]passage.Passage
	for start := 0; start < len(passages); start += size {
		out = append(out, passages[start:min(start+size, len(passages))])
	}
	return out
}
