package retrieval

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/hit"
)

// DefaultAlpha weights the vector column in the hybrid score.
const DefaultAlpha = 0.6

// Fusion merges vector and lexical hits into one ranking by a weighted sum of
// min-max normalized scores.
type Fusion struct {
	alpha float64
}

// NewFusion validates alpha, which must lie in [0, 1].
func NewFusion(alpha float64) (Fusion, error) {
	if alpha < 0 || alpha > 1 {
		return Fusion{}, fmt.Errorf("alpha must be in [0,1], got %v", alpha)
	}
	return Fusion{alpha: alpha}, nil
}

// Fuse joins both hit lists by passage id and ranks them by
// alpha*normVector + (1-alpha)*normLexical, best first.
// Vector hits come first in the union, then lexical-only hits; ties keep that order.
// A passage missing from one source scores 0 there before normalization.
// topK <= 0 returns the whole fused set.
func (f Fusion) Fuse(vectors []hit.Vector, lexical []hit.Lexical, topK int) []candidate.Candidate {
	cands := make([]candidate.Candidate, 0, len(vectors)+len(lexical))
	pos := make(map[int64]int, len(vectors)+len(lexical))
	lexSeen := make(map[int64]bool, len(lexical))

	for _, h := range vectors {
		if _, dup := pos[h.Passage.ID]; dup {
			continue
		}
		pos[h.Passage.ID] = len(cands)
		cands = append(cands, candidate.FromVector(h.Passage, h.Similarity()).WithLexical(0))
	}
	for _, h := range lexical {
		id := h.Passage.ID
		if lexSeen[id] {
			continue
		}
		lexSeen[id] = true
		rel := lexicalRelevance(h.BM25)
		if i, ok := pos[id]; ok {
			cands[i] = cands[i].WithLexical(rel)
			continue
		}
		pos[id] = len(cands)
		cands = append(cands, candidate.FromLexical(h.Passage, rel))
	}

	vecCol := make([]float64, len(cands))
	lexCol := make([]float64, len(cands))
	for i, c := range cands {
		vecCol[i] = c.VectorScore()
		lexCol[i], _ = c.LexicalScore()
	}
	normVec := minMax(vecCol)
	normLex := minMax(lexCol)

	for i := range cands {
		hybrid := f.alpha*normVec[i] + (1-f.alpha)*normLex[i]
		cands[i] = cands[i].WithFusion(normVec[i], normLex[i], hybrid)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		hi, _ := cands[i].HybridScore()
		hj, _ := cands[j].HybridScore()
		return hi > hj
	})

	if topK > 0 && len(cands) > topK {
		cands = cands[:topK]
	}
	return cands
}

// lexicalRelevance turns an FTS5 bm25() value (more negative is better) into
// a higher-is-better relevance.
func lexicalRelevance(bm25 float64) float64 {
	return -bm25
}

// minMax scales values to [0,1]. A constant column (including a single value) maps to 0.
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}
