// Package rerank reorders fused candidates with a logistic-regression relevance model.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// ModelStore persists the relevance model.
type ModelStore interface {
	Load(ctx context.Context) (*relevance.Model, error)
	Save(ctx context.Context, m *relevance.Model) error
}

// Reranker scores candidates with the published model. When no model exists the
// first call bootstraps one; concurrent callers wait and reuse it.
type Reranker struct {
	store  ModelStore
	boot   Bootstrapper
	logger *zap.Logger

	model atomic.Pointer[relevance.Model]
	// initMu serializes check-train-persist-publish.
	initMu sync.Mutex
}

// New creates a reranker with no model loaded.
func New(store ModelStore, boot Bootstrapper, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{store: store, boot: boot, logger: logger}
}

// Load publishes the persisted model, if any. A missing model is not an error.
func (r *Reranker) Load(ctx context.Context) error {
	m, err := r.store.Load(ctx)
	if errors.Is(err, domain.ErrModelNotFound) {
		r.logger.Info("No relevance model persisted yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load relevance model: %w", err)
	}
	if m.FeatureCount != FeatureCount {
		return fmt.Errorf("load relevance model: %w: model has %d features, want %d",
			relevance.ErrDimensionMismatch, m.FeatureCount, FeatureCount)
	}
	r.publish(m)
	r.logger.Info("Relevance model loaded",
		zap.String("source", m.Source),
		zap.Time("trained_at", m.TrainedAt),
	)
	return nil
}

// Model returns the published model or nil.
func (r *Reranker) Model() *relevance.Model {
	return r.model.Load()
}

// Rerank returns cands reordered by descending relevance probability, with the
// learned score set on each. Ties keep the incoming order. The result is never truncated.
// When no model exists and the batch cannot train one, cands is returned unchanged.
func (r *Reranker) Rerank(
	ctx context.Context, query string, cands []candidate.Candidate,
) ([]candidate.Candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}

	m := r.model.Load()
	if m == nil {
		var err error
		if m, err = r.ensureModel(ctx, query, cands); err != nil {
			return nil, err
		}
		if m == nil {
			return cands, nil
		}
	}

	out := make([]candidate.Candidate, len(cands))
	for i, c := range cands {
		p, err := m.Probability(ExtractCandidate(query, c))
		if err != nil {
			return nil, fmt.Errorf("score candidate %d: %w", c.ID(), err)
		}
		out[i] = c.WithLearned(p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, _ := out[i].LearnedScore()
		pj, _ := out[j].LearnedScore()
		return pi > pj
	})
	return out, nil
}

// ensureModel runs the bootstrap at most once per process. A model is
// persisted before it is published; a failed save publishes nothing.
func (r *Reranker) ensureModel(
	ctx context.Context, query string, cands []candidate.Candidate,
) (*relevance.Model, error) {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	if m := r.model.Load(); m != nil {
		return m, nil
	}

	m, err := r.boot.Bootstrap(ctx, query, cands)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotTrained) {
			metrics.RerankerBootstrapTotal.WithLabelValues("refused").Inc()
		} else {
			metrics.RerankerBootstrapTotal.WithLabelValues("failed").Inc()
		}
		return nil, fmt.Errorf("bootstrap relevance model: %w", err)
	}
	if m == nil {
		metrics.RerankerBootstrapTotal.WithLabelValues("skipped").Inc()
		r.logger.Debug("Bootstrap skipped, batch too small", zap.Int("candidates", len(cands)))
		return nil, nil
	}

	if err := r.store.Save(ctx, m); err != nil {
		metrics.RerankerBootstrapTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("persist relevance model: %w", err)
	}
	r.publish(m)
	metrics.RerankerBootstrapTotal.WithLabelValues("trained").Inc()

	r.logger.Warn("Relevance model bootstrapped from a single query; train offline for real relevance",
		zap.Int("candidates", len(cands)),
		zap.Int("iterations", m.Iterations),
	)
	return m, nil
}

func (r *Reranker) publish(m *relevance.Model) {
	r.model.Store(m)
	metrics.RerankerModelLoaded.Set(1)
}
