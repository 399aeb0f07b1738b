// Package relevance holds the logistic-regression relevance classifier used by the learned reranker.
package relevance

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Training sources recorded on a model.
const (
	SourceBootstrap = "bootstrap"
	SourceOffline   = "offline"
)

var (
	// ErrEmptyTrainingSet is returned when Fit receives no samples.
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrSingleClass is returned when the labels do not contain both classes.
	ErrSingleClass = errors.New("training set needs both classes")
	// ErrDimensionMismatch is returned when a feature vector has the wrong length.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)

// Model is a fitted binary logistic regression. Immutable after Fit or Decode.
type Model struct {
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
	FeatureCount int       `json:"feature_count"`
	Source       string    `json:"source,omitempty"`
	Iterations   int       `json:"iterations,omitempty"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Validate checks that the parameters are usable for scoring.
func (m *Model) Validate() error {
	if m.FeatureCount <= 0 {
		return fmt.Errorf("feature_count must be > 0, got %d", m.FeatureCount)
	}
	if len(m.Weights) != m.FeatureCount {
		return fmt.Errorf("%w: %d weights for %d features", ErrDimensionMismatch, len(m.Weights), m.FeatureCount)
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("weight %d is not finite", i)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return errors.New("intercept is not finite")
	}
	return nil
}

// Probability returns P(relevant | x).
func (m *Model) Probability(x []float64) (float64, error) {
	if len(x) != m.FeatureCount {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), m.FeatureCount)
	}
	return sigmoid(m.decision(x)), nil
}

func (m *Model) decision(x []float64) float64 {
	z := m.Intercept
	for i, w := range m.Weights {
		z += w * x[i]
	}
	return z
}

// Encode serializes the model.
func (m *Model) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return data, nil
}

// Decode parses and validates a serialized model.
func Decode(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
