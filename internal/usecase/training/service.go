// Package training fits the relevance model offline from keyword-labelled queries.
package training

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
	"github.com/kailas-cloud/docqa/internal/usecase/rerank"
)

// DefaultCandidates is how many fused candidates are labelled per query.
const DefaultCandidates = 20

// Config tunes training.
type Config struct {
	Candidates int
	Fit        relevance.FitOptions
}

// Report summarizes a training run.
type Report struct {
	Queries   int
	Samples   int
	Positives int
	Model     *relevance.Model
	Duration  time.Duration
}

// Service trains and persists the relevance model.
type Service struct {
	retriever Retriever
	store     ModelStore
	cfg       Config
	logger    *zap.Logger
}

// New creates a training service.
func New(retriever Retriever, store ModelStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.Candidates <= 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.Fit.MaxIter <= 0 {
		cfg.Fit = relevance.DefaultFitOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{retriever: retriever, store: store, cfg: cfg, logger: logger}
}

// Train labels the hybrid candidates of every query, fits the model and saves it.
// Nothing is saved when any query fails or the labels contain a single class.
func (s *Service) Train(ctx context.Context, queries []Query) (*Report, error) {
	start := time.Now()

	var (
		x   [][]float64
		y   []int
		pos int
	)
	for i, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		cands, err := s.retriever.Retrieve(ctx, q.Query, s.cfg.Candidates, mode.Hybrid)
		if err != nil {
			return nil, fmt.Errorf("retrieve candidates for query %d: %w", i+1, err)
		}
		matched := 0
		for _, c := range cands {
			x = append(x, rerank.ExtractCandidate(q.Query, c))
			label := 0
			if q.Matches(c.Passage().Content) {
				label = 1
				matched++
			}
			y = append(y, label)
		}
		pos += matched
		s.logger.Debug("Labelled training query",
			zap.Int("query", i+1),
			zap.Int("candidates", len(cands)),
			zap.Int("relevant", matched),
		)
	}

	opts := s.cfg.Fit
	opts.Source = relevance.SourceOffline
	m, err := relevance.Fit(x, y, opts)
	if err != nil {
		return nil, fmt.Errorf("fit relevance model: %w", err)
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save relevance model: %w", err)
	}

	report := &Report{
		Queries:   len(queries),
		Samples:   len(x),
		Positives: pos,
		Model:     m,
		Duration:  time.Since(start),
	}
	s.logger.Info("Relevance model trained",
		zap.Int("queries", report.Queries),
		zap.Int("samples", report.Samples),
		zap.Int("positives", report.Positives),
		zap.Int("iterations", m.Iterations),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
