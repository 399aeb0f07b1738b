package rerank

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
)

// Bootstrap policies, as named in configuration.
const (
	PolicySelfLabel      = "self_label"
	PolicyRequireTrained = "require_trained"
)

// Bootstrapper produces the first relevance model when none has been persisted.
// A nil model with a nil error means the batch cannot train one.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, query string, cands []candidate.Candidate) (*relevance.Model, error)
}

// NewBootstrapper returns the bootstrapper for a configured policy.
func NewBootstrapper(policy string, opts relevance.FitOptions) (Bootstrapper, error) {
	switch policy {
	case "", PolicySelfLabel:
		return SelfLabel{Options: opts}, nil
	case PolicyRequireTrained:
		return RequireTrained{}, nil
	default:
		return nil, fmt.Errorf("unknown bootstrap policy %q", policy)
	}
}

// SelfLabel trains on the batch itself: the top half by incoming hybrid rank is
// labelled relevant, the rest not. The resulting model mostly reproduces the
// fused ranking; it exists so learned mode works before an offline model is trained.
type SelfLabel struct {
	Options relevance.FitOptions
}

// Bootstrap implements Bootstrapper.
func (s SelfLabel) Bootstrap(_ context.Context, query string, cands []candidate.Candidate) (*relevance.Model, error) {
	if len(cands) < 2 {
		return nil, nil
	}

	x := make([][]float64, len(cands))
	y := make([]int, len(cands))
	half := len(cands) / 2
	for i, c := range cands {
		x[i] = ExtractCandidate(query, c)
		if i < half {
			y[i] = 1
		}
	}

	opts := s.Options
	opts.Source = relevance.SourceBootstrap
	m, err := relevance.Fit(x, y, opts)
	if err != nil {
		return nil, fmt.Errorf("self-label fit: %w", err)
	}
	return m, nil
}

// RequireTrained refuses to bootstrap; learned mode stays unavailable until an
// offline model is present.
type RequireTrained struct{}

// Bootstrap implements Bootstrapper.
func (RequireTrained) Bootstrap(context.Context, string, []candidate.Candidate) (*relevance.Model, error) {
	return nil, domain.ErrModelNotTrained
}
