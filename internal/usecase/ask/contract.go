package ask

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/usecase/answer"
)

// Retriever returns ranked candidates for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, m mode.Mode) ([]candidate.Candidate, error)
}

// Extractor turns the top candidate into an answer or an abstention.
type Extractor interface {
	Extract(ctx context.Context, query string, top *candidate.Candidate) (answer.Answer, error)
	MaxContextChars() int
}
