package mode

import (
	"fmt"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Mode is the retrieval strategy for a query.
type Mode string

// Retrieval mode constants.
const (
	// Baseline ranks by vector similarity only.
	Baseline Mode = "baseline"
	// Hybrid fuses vector and lexical scores.
	Hybrid Mode = "hybrid"
	// Learned reranks the fused set with the relevance model.
	Learned Mode = "learned"
)

// Default is used when the caller does not name a mode.
const Default = Learned

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Baseline || m == Hybrid || m == Learned
}

// UsesLexical reports whether the mode consults the chunk store.
func (m Mode) UsesLexical() bool { return m == Hybrid || m == Learned }

// Parse converts s to a Mode. Empty input yields Default.
func Parse(s string) (Mode, error) {
	if s == "" {
		return Default, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q (want baseline, hybrid or learned)", domain.ErrInvalidMode, s)
	}
	return m, nil
}

// All lists every mode in comparison order.
func All() []Mode { return []Mode{Baseline, Hybrid, Learned} }
