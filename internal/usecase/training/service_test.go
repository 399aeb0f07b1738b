package training

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/candidate"
	"github.com/kailas-cloud/docqa/internal/domain/mode"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
	"github.com/kailas-cloud/docqa/internal/usecase/rerank"
)

// --- Mocks ---

type mockRetriever struct {
	byQuery map[string][]candidate.Candidate
	err     error
	topKs   []int
	modes   []mode.Mode
}

func (m *mockRetriever) Retrieve(
	_ context.Context, query string, topK int, md mode.Mode,
) ([]candidate.Candidate, error) {
	m.topKs = append(m.topKs, topK)
	m.modes = append(m.modes, md)
	if m.err != nil {
		return nil, m.err
	}
	return m.byQuery[query], nil
}

type mockStore struct {
	saved *relevance.Model
	err   error
}

func (m *mockStore) Save(_ context.Context, model *relevance.Model) error {
	if m.err != nil {
		return m.err
	}
	m.saved = model
	return nil
}

func cand(id int64, content string, nv, nl float64) candidate.Candidate {
	p := passage.Passage{ID: id, DocName: "osha3170.pdf", DocTitle: "OSHA 3170", ChunkIndex: int(id % 4), Content: content}
	return candidate.FromVector(p, nv).WithLexical(nl).WithFusion(nv, nl, 0.6*nv+0.4*nl)
}

func guardQueries() ([]Query, *mockRetriever) {
	qs := []Query{
		{Query: "what machine guards are recognized", Keywords: []string{"Interlocked", "fixed guard"}},
		{Query: "lockout tagout steps", Keywords: []string{"lockout"}},
	}
	r := &mockRetriever{byQuery: map[string][]candidate.Candidate{
		qs[0].Query: {
			cand(1, "Fixed guards are permanent parts of the machine.", 1, 0.9),
			cand(2, "INTERLOCKED guards shut off power when opened.", 0.8, 1),
			cand(3, "Training records must be kept for three years.", 0.3, 0),
			cand(4, "Ventilation rates for paint booths.", 0, 0.1),
		},
		qs[1].Query: {
			cand(5, "Apply lockout devices to each energy source.", 1, 1),
			cand(6, "Emergency exits must remain unobstructed.", 0.2, 0),
		},
	}}
	return qs, r
}

// --- Tests ---

func TestQueryMatches(t *testing.T) {
	q := Query{Query: "q", Keywords: []string{"CE Marking", " ", "annex III"}}
	tests := []struct {
		content string
		want    bool
	}{
		{"Products bearing the ce marking may circulate.", true},
		{"See ANNEX iii for the list.", true},
		{"Conformity assessment procedures.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := q.Matches(tt.content); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestTrain(t *testing.T) {
	qs, r := guardQueries()
	store := &mockStore{}
	svc := New(r, store, Config{}, nil)

	report, err := svc.Train(context.Background(), qs)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if report.Queries != 2 || report.Samples != 6 || report.Positives != 3 {
		t.Errorf("report = %+v, want 2 queries, 6 samples, 3 positives", report)
	}
	if store.saved == nil || store.saved != report.Model {
		t.Fatal("trained model was not saved")
	}
	if store.saved.Source != relevance.SourceOffline {
		t.Errorf("source = %q, want %q", store.saved.Source, relevance.SourceOffline)
	}
	if store.saved.FeatureCount != rerank.FeatureCount {
		t.Errorf("feature count = %d, want %d", store.saved.FeatureCount, rerank.FeatureCount)
	}
	for i, k := range r.topKs {
		if k != DefaultCandidates || r.modes[i] != mode.Hybrid {
			t.Errorf("call %d: topK=%d mode=%s, want %d hybrid", i, k, r.modes[i], DefaultCandidates)
		}
	}
}

func TestTrain_Errors(t *testing.T) {
	qs, r := guardQueries()

	t.Run("retrieval failure", func(t *testing.T) {
		store := &mockStore{}
		failing := &mockRetriever{err: domain.ErrRetrievalUnavailable}
		_, err := New(failing, store, Config{}, nil).Train(context.Background(), qs)
		if !errors.Is(err, domain.ErrRetrievalUnavailable) {
			t.Fatalf("err = %v, want ErrRetrievalUnavailable", err)
		}
		if store.saved != nil {
			t.Error("model saved after a failed run")
		}
	})

	t.Run("single class", func(t *testing.T) {
		store := &mockStore{}
		only := []Query{{Query: qs[1].Query, Keywords: []string{"nowhere to be found"}}}
		_, err := New(r, store, Config{}, nil).Train(context.Background(), only)
		if !errors.Is(err, relevance.ErrSingleClass) {
			t.Fatalf("err = %v, want ErrSingleClass", err)
		}
		if store.saved != nil {
			t.Error("model saved for a single-class set")
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := New(&mockRetriever{}, &mockStore{}, Config{}, nil).Train(context.Background(), qs)
		if !errors.Is(err, relevance.ErrEmptyTrainingSet) {
			t.Fatalf("err = %v, want ErrEmptyTrainingSet", err)
		}
	})

	t.Run("invalid query", func(t *testing.T) {
		_, err := New(r, &mockStore{}, Config{}, nil).Train(context.Background(), []Query{{Query: "x"}})
		if err == nil {
			t.Fatal("expected error for a query without keywords")
		}
	})

	t.Run("save failure", func(t *testing.T) {
		store := &mockStore{err: errors.New("disk full")}
		_, err := New(r, store, Config{}, nil).Train(context.Background(), qs)
		if err == nil {
			t.Fatal("expected save error")
		}
	})
}
