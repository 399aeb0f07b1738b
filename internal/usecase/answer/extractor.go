// Package answer picks a short extractive answer out of the best passage, or abstains.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
)

// Defaults for the extractor.
const (
	DefaultThreshold       = 0.5
	DefaultMaxContextChars = 1000
)

// Abstention reason codes.
const (
	ReasonNoCandidates  = "no_candidates"
	ReasonLowConfidence = "low_confidence"
)

// AbstainDetails is the human-readable abstention message.
const AbstainDetails = "Could not find a sufficiently relevant document chunk to form an answer."

// Answer is the extraction outcome. Text is empty when Abstained is set.
type Answer struct {
	Text      string
	Abstained bool
	Reason    string
	Details   string
}

// Config tunes extraction.
type Config struct {
	// Threshold is the minimum final score of the top candidate.
	Threshold float64
	// MaxContextChars caps the passage text (in characters) before extraction.
	MaxContextChars int
}

// Extractor selects the sentence window most similar to the query.
type Extractor struct {
	embed domain.Embedder
	cfg   Config
}

// New creates an extractor. embed should be the same model used for passages.
func New(embed domain.Embedder, cfg Config) *Extractor {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	return &Extractor{embed: embed, cfg: cfg}
}

// MaxContextChars returns the display cap applied to passage text.
func (e *Extractor) MaxContextChars() int { return e.cfg.MaxContextChars }

// Extract answers from top, or abstains when top is nil or scores below the threshold.
func (e *Extractor) Extract(ctx context.Context, query string, top *candidate.Candidate) (Answer, error) {
	if top == nil {
		return abstain(ReasonNoCandidates), nil
	}
	if top.Score() < e.cfg.Threshold {
		return abstain(ReasonLowConfidence), nil
	}

	p := top.Passage()
	content := p.Truncate(e.cfg.MaxContextChars)
	sents := SplitSentences(Normalize(content))
	if len(sents) == 0 {
		return Answer{Text: content}, nil
	}

	res, err := domain.EmbedAll(ctx, e.embed, append([]string{query}, sents...))
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return Answer{}, fmt.Errorf("embed sentences: %w", err)
	}

	best := bestIndex(res.Embeddings[0], res.Embeddings[1:])
	return Answer{Text: strings.Join(window(sents, best), " ")}, nil
}

// bestIndex returns the sentence most similar to q; the first wins on ties.
func bestIndex(q []float32, sents [][]float32) int {
	best, bestSim := 0, domain.CosineSimilarity(q, sents[0])
	for i := 1; i < len(sents); i++ {
		if sim := domain.CosineSimilarity(q, sents[i]); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best
}

// window returns sents[i-1..i+1] clipped to bounds.
func window(sents []string, i int) []string {
	lo := max(i-1, 0)
	hi := min(i+2, len(sents))
	return sents[lo:hi]
}

func abstain(reason string) Answer {
	return Answer{Abstained: true, Reason: reason, Details: AbstainDetails}
}
