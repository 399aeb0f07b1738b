// Package retrieval runs the candidate retrieval pipeline: dense search, lexical
// search, score fusion and optional learned reranking.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/hit"
	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// DefaultLexicalPool is how many full-text matches hybrid modes fetch, independent of top_k.
const DefaultLexicalPool = 30

// Config tunes the pipeline.
type Config struct {
	Alpha       float64
	LexicalPool int
	// Timeout bounds both retrieval calls. Zero disables it.
	Timeout time.Duration
}

// Service is the retrieval pipeline.
type Service struct {
	vectors  VectorIndex
	lexical  LexicalSource
	embed    Embedder
	reranker Reranker
	fusion   Fusion
	cfg      Config
}

// New creates a retrieval service. reranker may be nil when learned mode is not served.
func New(
	vectors VectorIndex, lexical LexicalSource, embed Embedder, reranker Reranker, cfg Config,
) (*Service, error) {
	fusion, err := NewFusion(cfg.Alpha)
	if err != nil {
		return nil, err
	}
	if cfg.LexicalPool <= 0 {
		cfg.LexicalPool = DefaultLexicalPool
	}
	return &Service{
		vectors:  vectors,
		lexical:  lexical,
		embed:    embed,
		reranker: reranker,
		fusion:   fusion,
		cfg:      cfg,
	}, nil
}

// Retrieve returns at most topK candidates for query, best first.
// Storage failures yield domain.ErrRetrievalUnavailable, embedding failures
// domain.ErrEmbeddingProviderError; neither source substitutes for the other.
func (s *Service) Retrieve(
	ctx context.Context, query string, topK int, m mode.Mode,
) ([]candidate.Candidate, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}
	if m == mode.Learned && s.reranker == nil {
		return nil, fmt.Errorf("learned mode: %w", domain.ErrModelNotTrained)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if !m.UsesLexical() {
		return s.retrieveBaseline(ctx, query, topK)
	}

	vecHits, lexHits, err := s.searchBoth(ctx, query, topK, m)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fused := s.fusion.Fuse(vecHits, lexHits, 0)
	observeStage(m, "fuse", start)
	metrics.RetrievalCandidates.WithLabelValues("fused").Observe(float64(len(fused)))

	if m == mode.Learned {
		start = time.Now()
		fused, err = s.reranker.Rerank(ctx, query, fused)
		observeStage(m, "rerank", start)
		if err != nil {
			return nil, fmt.Errorf("rerank: %w", err)
		}
	}

	if len(fused) > topK {
		fused = fused[:topK]
	}

	logger.FromContext(ctx).Debug("Retrieval completed",
		zap.String("mode", string(m)),
		zap.Int("vector_hits", len(vecHits)),
		zap.Int("lexical_hits", len(lexHits)),
		zap.Int("returned", len(fused)),
	)
	return fused, nil
}

func (s *Service) retrieveBaseline(ctx context.Context, query string, topK int) ([]candidate.Candidate, error) {
	hits, err := s.searchVector(ctx, query, topK, mode.Baseline)
	if err != nil {
		return nil, err
	}

	cands := make([]candidate.Candidate, 0, len(hits))
	for _, h := range hits {
		cands = append(cands, candidate.FromVector(h.Passage, h.Similarity()))
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].VectorScore() > cands[j].VectorScore()
	})
	if len(cands) > topK {
		cands = cands[:topK]
	}
	return cands, nil
}

// searchBoth runs the vector and lexical searches concurrently.
// The first failure cancels the other call.
func (s *Service) searchBoth(
	ctx context.Context, query string, topK int, m mode.Mode,
) ([]hit.Vector, []hit.Lexical, error) {
	var (
		vecHits []hit.Vector
		lexHits []hit.Lexical
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vecHits, err = s.searchVector(gctx, query, topK, m)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		lexHits, err = s.lexical.LexicalSearch(gctx, query, s.cfg.LexicalPool)
		observeStage(m, "lexical", start)
		if err != nil {
			metrics.RetrievalErrorsTotal.WithLabelValues(string(m), "lexical").Inc()
			return fmt.Errorf("%w: chunk store: %w", domain.ErrRetrievalUnavailable, err)
		}
		metrics.RetrievalCandidates.WithLabelValues("lexical").Observe(float64(len(lexHits)))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err //nolint:wrapcheck // already classified by the goroutine
	}
	return vecHits, lexHits, nil
}

func (s *Service) searchVector(
	ctx context.Context, query string, topK int, m mode.Mode,
) ([]hit.Vector, error) {
	start := time.Now()
	emb, err := s.embed.Embed(ctx, query)
	observeStage(m, "embed", start)
	if err != nil {
		metrics.RetrievalErrorsTotal.WithLabelValues(string(m), "embed").Inc()
		if cerr := ctx.Err(); errors.Is(cerr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrRetrievalUnavailable, cerr)
		}
		return nil, fmt.Errorf("vectorize query: %w", asProviderError(err))
	}

	start = time.Now()
	hits, err := s.vectors.Search(ctx, emb.Embedding, topK)
	observeStage(m, "vector", start)
	if err != nil {
		metrics.RetrievalErrorsTotal.WithLabelValues(string(m), "vector").Inc()
		return nil, fmt.Errorf("%w: vector index: %w", domain.ErrRetrievalUnavailable, err)
	}
	metrics.RetrievalCandidates.WithLabelValues("vector").Observe(float64(len(hits)))
	return hits, nil
}

func asProviderError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
}

func observeStage(m mode.Mode, stage string, start time.Time) {
	metrics.RetrievalStageDuration.WithLabelValues(string(m), stage).Observe(time.Since(start).Seconds())
}
