package docqa

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by *APIError through errors.Is.
var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrRetrievalUnavailable   = errors.New("retrieval unavailable")
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	ErrModelNotTrained        = errors.New("relevance model not trained")
	ErrInternal               = errors.New("internal server error")
)

var sentinelByCode = map[string]error{
	"bad_request":              ErrInvalidRequest,
	"validation_failed":        ErrInvalidRequest,
	"retrieval_unavailable":    ErrRetrievalUnavailable,
	"embedding_provider_error": ErrEmbeddingProviderError,
	"model_not_trained":        ErrModelNotTrained,
	"internal_error":           ErrInternal,
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("docqa: http %d", e.StatusCode)
	}
	return fmt.Sprintf("docqa: http %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is matches the sentinel for the error code.
func (e *APIError) Is(target error) bool {
	s, ok := sentinelByCode[e.Code]
	return ok && s == target
}
