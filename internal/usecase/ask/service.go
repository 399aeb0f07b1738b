// Package ask answers one question: retrieve, rank, then extract or abstain.
package ask

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// Defaults for top_k handling.
const (
	DefaultTopK    = 5
	DefaultMaxTopK = 50
)

// Request is one question.
type Request struct {
	Query string
	// TopK of 0 means the configured default.
	TopK int
	// Mode "" means mode.Default.
	Mode mode.Mode
}

// Signals are the per-candidate scores behind a context's rank.
// Nil pointers mark signals the mode did not compute.
type Signals struct {
	Vector  float64
	Lexical *float64
	Hybrid  *float64
	Learned *float64
}

// Context is a ranked passage as shown to the caller.
type Context struct {
	DocName    string
	DocTitle   string
	DocURL     string
	PageNum    int
	ChunkIndex int
	Score      float64
	Content    string
	Signals    Signals
}

// Result is the answer to a Request.
type Result struct {
	Mode      mode.Mode
	Answer    string
	Abstained bool
	Reason    string
	Details   string
	Contexts  []Context
}

// Config bounds top_k.
type Config struct {
	DefaultTopK int
	MaxTopK     int
}

// Service answers questions.
type Service struct {
	retriever Retriever
	extractor Extractor
	cfg       Config
}

// New creates an ask service.
func New(retriever Retriever, extractor Extractor, cfg Config) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = DefaultMaxTopK
	}
	return &Service{retriever: retriever, extractor: extractor, cfg: cfg}
}

// Ask runs retrieval in the requested mode and extracts an answer from the top context.
// A low-confidence or empty result is an abstention, not an error.
func (s *Service) Ask(ctx context.Context, req Request) (Result, error) {
	m := req.Mode
	if m == "" {
		m = mode.Default
	}
	if !m.IsValid() {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.cfg.DefaultTopK
	}
	if topK < 0 || topK > s.cfg.MaxTopK {
		return Result{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			domain.ErrInvalidQuery, s.cfg.MaxTopK, topK)
	}

	cands, err := s.retriever.Retrieve(ctx, req.Query, topK, m)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve: %w", err)
	}

	var top *candidate.Candidate
	if len(cands) > 0 {
		top = &cands[0]
	}

	start := time.Now()
	ans, err := s.extractor.Extract(ctx, req.Query, top)
	metrics.RetrievalStageDuration.WithLabelValues(string(m), "answer").Observe(time.Since(start).Seconds())
	if err != nil {
		return Result{}, fmt.Errorf("extract answer: %w", err)
	}

	outcome := "answered"
	if ans.Abstained {
		outcome = ans.Reason
	}
	metrics.AnswersTotal.WithLabelValues(string(m), outcome).Inc()

	logger.FromContext(ctx).Debug("Question answered",
		zap.String("mode", string(m)),
		zap.Int("contexts", len(cands)),
		zap.String("outcome", outcome),
	)

	return Result{
		Mode:      m,
		Answer:    ans.Text,
		Abstained: ans.Abstained,
		Reason:    ans.Reason,
		Details:   ans.Details,
		Contexts:  s.contexts(cands),
	}, nil
}

func (s *Service) contexts(cands []candidate.Candidate) []Context {
	maxChars := s.extractor.MaxContextChars()
	out := make([]Context, len(cands))
	for i, c := range cands {
		p := c.Passage()
		out[i] = Context{
			DocName:    p.DocName,
			DocTitle:   p.DocTitle,
			DocURL:     p.DocURL,
			PageNum:    p.PageNum,
			ChunkIndex: p.ChunkIndex,
			Score:      c.Score(),
			Content:    p.Truncate(maxChars),
			Signals:    signalsOf(c),
		}
	}
	return out
}

func signalsOf(c candidate.Candidate) Signals {
	sig := Signals{Vector: c.VectorScore()}
	if v, ok := c.LexicalScore(); ok {
		sig.Lexical = &v
	}
	if v, ok := c.HybridScore(); ok {
		sig.Hybrid = &v
	}
	if v, ok := c.LearnedScore(); ok {
		sig.Learned = &v
	}
	return sig
}
