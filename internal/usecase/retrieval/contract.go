package retrieval

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/hit"
)

// VectorIndex returns the k nearest passages to a query embedding.
type VectorIndex interface {
	Search(ctx context.Context, vec []float32, k int) ([]hit.Vector, error)
}

// LexicalSource returns up to limit full-text matches, best first.
type LexicalSource interface {
	LexicalSearch(ctx context.Context, query string, limit int) ([]hit.Lexical, error)
}

// Embedder vectorizes the query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Reranker reorders a fused candidate set by learned relevance.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []candidate.Candidate) ([]candidate.Candidate, error)
}
