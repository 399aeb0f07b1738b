// Package compare runs a question set through every retrieval mode side by side.
package compare

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain/mode"
	askuc "github.com/kailas-cloud/docqa/internal/usecase/ask"
)

// Abstained is the answer cell for an abstention.
const Abstained = "Abstained"

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, req askuc.Request) (askuc.Result, error)
}

// Cell is one mode's outcome for a question.
type Cell struct {
	Mode     mode.Mode
	Answer   string
	TopDoc   string
	TopScore *float64
	Err      error
}

// Row is one question across all modes.
type Row struct {
	Question string
	Cells    []Cell
}

// Service runs comparisons.
type Service struct {
	ask    Asker
	modes  []mode.Mode
	topK   int
	logger *zap.Logger
}

// New creates a comparison over modes (all modes when empty). topK 0 uses the server default.
func New(ask Asker, modes []mode.Mode, topK int, logger *zap.Logger) *Service {
	if len(modes) == 0 {
		modes = mode.All()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ask: ask, modes: modes, topK: topK, logger: logger}
}

// Modes returns the compared modes in column order.
func (s *Service) Modes() []mode.Mode { return s.modes }

// Run asks every question in every mode. A failing mode is recorded in its
// cell and does not stop the run; a cancelled context does.
func (s *Service) Run(ctx context.Context, questions []string) ([]Row, error) {
	rows := make([]Row, 0, len(questions))
	for i, q := range questions {
		row := Row{Question: fmt.Sprintf("Q%d: %s", i+1, q), Cells: make([]Cell, len(s.modes))}
		for j, m := range s.modes {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("compare: %w", err)
			}
			row.Cells[j] = s.cell(ctx, q, m)
		}
		s.logger.Debug("Compared question", zap.Int("question", i+1))
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Service) cell(ctx context.Context, query string, m mode.Mode) Cell {
	res, err := s.ask.Ask(ctx, askuc.Request{Query: query, TopK: s.topK, Mode: m})
	if err != nil {
		s.logger.Warn("Comparison query failed", zap.String("mode", string(m)), zap.Error(err))
		return Cell{Mode: m, Answer: "Error: " + err.Error(), TopDoc: "N/A", Err: err}
	}

	c := Cell{Mode: m, Answer: res.Answer, TopDoc: "N/A"}
	if res.Abstained {
		c.Answer = Abstained
	}
	if len(res.Contexts) > 0 {
		top := res.Contexts[0]
		score := top.Score
		c.TopDoc = top.DocName
		c.TopScore = &score
	}
	return c
}

// TopDocLabel renders the top document with its score.
func (c Cell) TopDocLabel() string {
	if c.TopScore == nil {
		return c.TopDoc + " (Score: N/A)"
	}
	return fmt.Sprintf("%s (Score: %.2f)", c.TopDoc, *c.TopScore)
}
