package rerank

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
)

// --- Mocks ---

type memStore struct {
	mu      sync.Mutex
	model   *relevance.Model
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(_ context.Context) (*relevance.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.model == nil {
		return nil, domain.ErrModelNotFound
	}
	return m.model, nil
}

func (m *memStore) Save(_ context.Context, model *relevance.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.model = model
	return nil
}

// countingBootstrapper wraps SelfLabel and counts invocations.
type countingBootstrapper struct {
	calls atomic.Int32
}

func (c *countingBootstrapper) Bootstrap(
	ctx context.Context, query string, cands []candidate.Candidate,
) (*relevance.Model, error) {
	c.calls.Add(1)
	return SelfLabel{Options: relevance.DefaultFitOptions()}.Bootstrap(ctx, query, cands)
}

// fused builds n candidates in hybrid order, best first.
func fused(n int) []candidate.Candidate {
	out := make([]candidate.Candidate, n)
	for i := range out {
		nv := 1 - float64(i)/float64(max(n-1, 1))
		nl := float64((i*7)%n) / float64(n)
		p := passage.Passage{
			ID:         int64(100 + i),
			DocName:    "doc.pdf",
			DocTitle:   "Hot Work Permit",
			ChunkIndex: i % 3,
			Content:    fmt.Sprintf("hot work sparks fire watch passage %d", i),
		}
		out[i] = candidate.FromVector(p, nv).WithLexical(nl).WithFusion(nv, nl, 0.6*nv+0.4*nl)
	}
	return out
}

func trainedModel() *relevance.Model {
	return &relevance.Model{
		Weights:      []float64{3, 1, 0.5, 0, -0.01, 0.2},
		Intercept:    -1,
		FeatureCount: FeatureCount,
		Source:       relevance.SourceOffline,
	}
}

func ids(cs []candidate.Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID()
	}
	return out
}

// --- Tests ---

func TestRerank_IsPermutationSortedByProbability(t *testing.T) {
	r := New(&memStore{model: trainedModel()}, RequireTrained{}, zap.NewNop())
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	in := fused(8)
	out, err := r.Rerank(context.Background(), "hot work permit", in)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d candidates, got %d", len(in), len(out))
	}

	seen := make(map[int64]int)
	for _, id := range ids(in) {
		seen[id]++
	}
	for _, id := range ids(out) {
		seen[id]--
	}
	for id, n := range seen {
		if n != 0 {
			t.Fatalf("id %d count differs by %d; not a permutation", id, n)
		}
	}

	prev := 2.0
	for i, c := range out {
		p, ok := c.LearnedScore()
		if !ok {
			t.Fatalf("candidate %d has no learned score", i)
		}
		if p > prev {
			t.Fatalf("position %d: %v after %v; not descending", i, p, prev)
		}
		if c.Score() != p {
			t.Errorf("Score() should prefer learned score")
		}
		prev = p
	}
}

func TestRerank_IdempotentWithTrainedModel(t *testing.T) {
	r := New(&memStore{model: trainedModel()}, RequireTrained{}, zap.NewNop())
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	in := fused(6)
	first, err := r.Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	second, err := r.Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	for i := range first {
		p1, _ := first[i].LearnedScore()
		p2, _ := second[i].LearnedScore()
		if first[i].ID() != second[i].ID() || p1 != p2 {
			t.Fatalf("position %d differs between runs: %d/%v vs %d/%v",
				i, first[i].ID(), p1, second[i].ID(), p2)
		}
	}
}

func TestRerank_BootstrapsOnceUnderConcurrency(t *testing.T) {
	store := &memStore{}
	boot := &countingBootstrapper{}
	r := New(store, boot, zap.NewNop())

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Rerank(context.Background(), "hot work", fused(6)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Rerank: %v", err)
	}

	if n := boot.calls.Load(); n != 1 {
		t.Errorf("bootstrap ran %d times, want 1", n)
	}
	if store.saves != 1 {
		t.Errorf("model saved %d times, want 1", store.saves)
	}
	m := r.Model()
	if m == nil || m.Source != relevance.SourceBootstrap {
		t.Fatalf("expected published bootstrap model, got %+v", m)
	}
	if store.model != m {
		t.Error("published model should be the persisted one")
	}
}

func TestRerank_TooFewCandidatesSkipsTraining(t *testing.T) {
	store := &memStore{}
	r := New(store, SelfLabel{Options: relevance.DefaultFitOptions()}, zap.NewNop())

	in := fused(1)
	out, err := r.Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatalf("Rerank: %v", err)
	}
	if len(out) != 1 || out[0].ID() != in[0].ID() {
		t.Fatalf("expected input unchanged, got %v", ids(out))
	}
	if _, ok := out[0].LearnedScore(); ok {
		t.Error("no learned score expected without a model")
	}
	if r.Model() != nil || store.saves != 0 {
		t.Error("no model should be trained or persisted")
	}

	empty, err := r.Rerank(context.Background(), "q", nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: got %v, %v", empty, err)
	}
}

func TestRerank_PersistFailurePublishesNothing(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	r := New(store, SelfLabel{Options: relevance.DefaultFitOptions()}, zap.NewNop())

	if _, err := r.Rerank(context.Background(), "q", fused(4)); err == nil {
		t.Fatal("expected persist error")
	}
	if r.Model() != nil {
		t.Fatal("model must not be published when persisting fails")
	}

	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()
	if _, err := r.Rerank(context.Background(), "q", fused(4)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if r.Model() == nil {
		t.Fatal("retry should publish the model")
	}
}

func TestRerank_RequireTrainedRefuses(t *testing.T) {
	r := New(&memStore{}, RequireTrained{}, zap.NewNop())

	_, err := r.Rerank(context.Background(), "q", fused(4))
	if !errors.Is(err, domain.ErrModelNotTrained) {
		t.Fatalf("expected ErrModelNotTrained, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing model is fine", func(t *testing.T) {
		r := New(&memStore{}, RequireTrained{}, zap.NewNop())
		if err := r.Load(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Model() != nil {
			t.Error("expected no model")
		}
	})
	t.Run("read error", func(t *testing.T) {
		r := New(&memStore{loadErr: errors.New("permission denied")}, RequireTrained{}, zap.NewNop())
		if err := r.Load(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("wrong feature count", func(t *testing.T) {
		m := &relevance.Model{Weights: []float64{1, 2}, FeatureCount: 2}
		r := New(&memStore{model: m}, RequireTrained{}, zap.NewNop())
		if err := r.Load(context.Background()); !errors.Is(err, relevance.ErrDimensionMismatch) {
			t.Fatalf("expected ErrDimensionMismatch, got %v", err)
		}
	})
}

func TestSelfLabel_LabelsTopHalf(t *testing.T) {
	in := fused(6)
	m, err := SelfLabel{Options: relevance.DefaultFitOptions()}.Bootstrap(context.Background(), "hot work", in)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if m.FeatureCount != FeatureCount {
		t.Fatalf("feature count = %d", m.FeatureCount)
	}
	top, err := m.Probability(ExtractCandidate("hot work", in[0]))
	if err != nil {
		t.Fatal(err)
	}
	bottom, err := m.Probability(ExtractCandidate("hot work", in[5]))
	if err != nil {
		t.Fatal(err)
	}
	if top <= bottom {
		t.Errorf("top-ranked candidate should score higher: %v <= %v", top, bottom)
	}
}

func TestNewBootstrapper(t *testing.T) {
	if b, err := NewBootstrapper("", relevance.DefaultFitOptions()); err != nil {
		t.Fatal(err)
	} else if _, ok := b.(SelfLabel); !ok {
		t.Errorf("default policy should be self_label, got %T", b)
	}
	if b, err := NewBootstrapper(PolicyRequireTrained, relevance.DefaultFitOptions()); err != nil {
		t.Fatal(err)
	} else if _, ok := b.(RequireTrained); !ok {
		t.Errorf("expected RequireTrained, got %T", b)
	}
	if _, err := NewBootstrapper("magic", relevance.DefaultFitOptions()); err == nil {
		t.Error("expected error for unknown policy")
	}
}
