// Package hit holds raw results from the two retrieval sources, before fusion.
package hit

import "github.com/kailas-cloud/docqa/internal/domain/passage"

// Vector is a nearest-neighbour match. Distance is the engine's cosine distance;
// lower is closer.
type Vector struct {
	Passage  passage.Passage
	Distance float64
}

// Similarity returns 1 - distance.
func (v Vector) Similarity() float64 { return 1 - v.Distance }

// Lexical is a full-text match. BM25 is the raw FTS5 bm25() value: lower
// (more negative) is more relevant.
type Lexical struct {
	Passage passage.Passage
	BM25    float64
}
