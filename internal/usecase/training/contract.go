package training

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
)

// Retriever produces fused candidates for a training query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, m mode.Mode) ([]candidate.Candidate, error)
}

// ModelStore persists the trained model.
type ModelStore interface {
	Save(ctx context.Context, m *relevance.Model) error
}
