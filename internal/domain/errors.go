package domain

import "errors"

var (
	// ErrInvalidMode signals an unknown retrieval mode.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidQuery signals an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidPassage signals a passage that violates the chunk invariants.
	ErrInvalidPassage = errors.New("invalid passage")
	// ErrRetrievalUnavailable signals that the vector index or the chunk store could not be reached.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrModelNotTrained signals a learned-mode query with no relevance model and bootstrap disabled.
	ErrModelNotTrained = errors.New("relevance model not trained")
	// ErrModelNotFound signals that no persisted relevance model exists.
	ErrModelNotFound = errors.New("relevance model not found")
)
