package health

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/relevance"
)

// Pinger checks a storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// ModelReporter exposes the published relevance model, if any.
type ModelReporter interface {
	Model() *relevance.Model
}
