package rerank

import (
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// FeatureCount is the length of every feature vector.
const FeatureCount = 6

// Extract builds the relevance feature vector:
// [vector_score, lexical_score, title_hit, query_word_count, chunk_word_count, is_title_chunk].
// Scores are used as given; callers pass fusion-normalized values.
func Extract(query string, p passage.Passage, vectorScore, lexicalScore float64) []float64 {
	return []float64{
		vectorScore,
		lexicalScore,
		boolFeature(titleHit(query, p.DocTitle)),
		float64(len(strings.Fields(query))),
		float64(len(strings.Fields(p.Content))),
		boolFeature(p.IsTitleChunk()),
	}
}

// ExtractCandidate builds the feature vector from a fused candidate.
func ExtractCandidate(query string, c candidate.Candidate) []float64 {
	return Extract(query, c.Passage(), c.NormalizedVector(), c.NormalizedLexical())
}

// titleHit reports whether any query token occurs inside the document title, ignoring case.
func titleHit(query, title string) bool {
	title = strings.ToLower(title)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
