package db

// DefaultVectorField is the hash field holding the embedding blob.
const DefaultVectorField = "vector"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to DefaultVectorField
	Vector       []float32
	K            int
	ReturnFields []string
	// RawScores returns __vector_score as the engine reports it (a distance).
	// Otherwise cosine distance is mapped to a similarity clamped at 0.
	RawScores bool
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
