package indexing

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// ChunkWriter replaces the passage table and its full-text index.
type ChunkWriter interface {
	Reset(ctx context.Context) error
	InsertBatch(ctx context.Context, passages []passage.Passage) error
}

// VectorWriter replaces the vector index contents.
type VectorWriter interface {
	Recreate(ctx context.Context) error
	Upsert(ctx context.Context, records []passage.Embedded) error
}
