package candidate

import "github.com/kailas-cloud/docqa/internal/domain/passage"

// Candidate is a passage plus the per-query signals computed for it.
// Values are copied on every With* call; a Candidate is never mutated in place.
type Candidate struct {
	passage passage.Passage

	vector     float64
	lexical    float64
	hasLexical bool

	normVector  float64
	normLexical float64
	hybrid      float64
	hasHybrid   bool

	learned    float64
	hasLearned bool
}

// FromVector creates a candidate found by the vector index.
func FromVector(p passage.Passage, vectorScore float64) Candidate {
	return Candidate{passage: p, vector: vectorScore}
}

// FromLexical creates a candidate found only by the chunk store.
// Its vector score is 0.
func FromLexical(p passage.Passage, lexicalScore float64) Candidate {
	return Candidate{passage: p, lexical: lexicalScore, hasLexical: true}
}

// Passage returns the underlying passage.
func (c Candidate) Passage() passage.Passage { return c.passage }

// ID returns the passage id.
func (c Candidate) ID() int64 { return c.passage.ID }

// VectorScore returns 1 - distance, or 0 when the vector index did not return the passage.
func (c Candidate) VectorScore() float64 { return c.vector }

// LexicalScore returns the reconciled lexical relevance. ok is false when the
// lexical signal was not consulted at all (baseline mode).
func (c Candidate) LexicalScore() (score float64, ok bool) { return c.lexical, c.hasLexical }

// NormalizedVector returns the min-max normalized vector score.
func (c Candidate) NormalizedVector() float64 { return c.normVector }

// NormalizedLexical returns the min-max normalized lexical score.
func (c Candidate) NormalizedLexical() float64 { return c.normLexical }

// HybridScore returns the fused score, if fusion ran.
func (c Candidate) HybridScore() (float64, bool) { return c.hybrid, c.hasHybrid }

// LearnedScore returns the relevance model probability, if the reranker ran.
func (c Candidate) LearnedScore() (float64, bool) { return c.learned, c.hasLearned }

// Score is the final ranking score: learned, else hybrid, else vector.
func (c Candidate) Score() float64 {
	switch {
	case c.hasLearned:
		return c.learned
	case c.hasHybrid:
		return c.hybrid
	default:
		return c.vector
	}
}

// WithLexical returns a copy with the lexical score set.
func (c Candidate) WithLexical(score float64) Candidate {
	c.lexical = score
	c.hasLexical = true
	return c
}

// WithFusion returns a copy carrying the normalized columns and the fused score.
func (c Candidate) WithFusion(normVector, normLexical, hybrid float64) Candidate {
	c.normVector = normVector
	c.normLexical = normLexical
	c.hybrid = hybrid
	c.hasHybrid = true
	return c
}

// WithLearned returns a copy with the relevance model probability set.
func (c Candidate) WithLearned(p float64) Candidate {
	c.learned = p
	c.hasLearned = true
	return c
}
