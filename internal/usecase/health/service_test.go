package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain/relevance"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockModel struct {
	m *relevance.Model
}

func (m *mockModel) Model() *relevance.Model { return m.m }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name      string
		vectors   error
		chunks    error
		embedding EmbeddingChecker
		model     ModelReporter
		want      Status
		checks    map[string]CheckResult
	}{
		{
			name:      "all healthy",
			embedding: &mockEmbeddingChecker{},
			model:     &mockModel{m: &relevance.Model{}},
			want:      Healthy,
			checks: map[string]CheckResult{
				ComponentVectorIndex: CheckOK, ComponentChunkStore: CheckOK,
				ComponentEmbedding: CheckOK, ComponentModel: CheckOK,
			},
		},
		{
			name:   "missing model does not degrade",
			model:  &mockModel{},
			want:   Healthy,
			checks: map[string]CheckResult{ComponentModel: CheckMissing},
		},
		{
			name:    "vector index down",
			vectors: down,
			want:    Degraded,
			checks:  map[string]CheckResult{ComponentVectorIndex: CheckError, ComponentChunkStore: CheckOK},
		},
		{
			name:      "embedding down",
			embedding: &mockEmbeddingChecker{err: down},
			want:      Degraded,
			checks:    map[string]CheckResult{ComponentEmbedding: CheckError},
		},
		{
			name:    "both stores down",
			vectors: down,
			chunks:  down,
			want:    Unhealthy,
			checks:  map[string]CheckResult{ComponentVectorIndex: CheckError, ComponentChunkStore: CheckError},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tc.vectors}, &mockPinger{err: tc.chunks}, tc.embedding, tc.model)
			r := svc.Check(context.Background())

			if r.Status != tc.want {
				t.Errorf("status = %q, want %q", r.Status, tc.want)
			}
			for k, v := range tc.checks {
				if r.Checks[k] != v {
					t.Errorf("check %s = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	r := New(&mockPinger{}, &mockPinger{}, nil, nil).Check(context.Background())

	if _, ok := r.Checks[ComponentEmbedding]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
	if _, ok := r.Checks[ComponentModel]; ok {
		t.Error("model check should be absent when model is nil")
	}
	if len(r.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(r.Checks))
	}
}
