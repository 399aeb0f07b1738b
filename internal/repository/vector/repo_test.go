package vector

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

func mustFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(err)
	}
	return f
}

func TestSearch_DecodesHitsInOrder(t *testing.T) {
	var got *db.KNNQuery
	ms := &mockStore{searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{entry("7", "0.1"), entry("3", "0.4")}}, nil
	}}
	repo := New(ms, testConfig())

	hits, err := repo.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.RawScores || got.K != 2 || got.IndexName != "docqa:chunks" || got.VectorField != "vector" {
		t.Errorf("unexpected query: %+v", got)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Passage.ID != 7 || hits[1].Passage.ID != 3 {
		t.Errorf("order lost: %d, %d", hits[0].Passage.ID, hits[1].Passage.ID)
	}
	if hits[0].Distance != 0.1 {
		t.Errorf("distance = %f, want 0.1", hits[0].Distance)
	}
	if hits[0].Passage.PageNum != 3 || hits[0].Passage.Content != "content 7" {
		t.Errorf("passage = %+v", hits[0].Passage)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	repo := New(&mockStore{}, testConfig())
	if _, err := repo.Search(context.Background(), []float32{1}, 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_StoreError(t *testing.T) {
	boom := &db.Error{Op: db.OpSearch, Err: errors.New("conn reset")}
	ms := &mockStore{searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, boom
	}}
	repo := New(ms, testConfig())

	_, err := repo.Search(context.Background(), []float32{1, 0, 0}, 5)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected db.Error in chain, got %v", err)
	}
}

func TestSearch_CorruptHash(t *testing.T) {
	bad := entry("x", "0.2")
	ms := &mockStore{searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{bad}}, nil
	}}
	repo := New(ms, testConfig())

	if _, err := repo.Search(context.Background(), []float32{1, 0, 0}, 1); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestUpsert(t *testing.T) {
	var items []db.HashSetItem
	ms := &mockStore{hsetMultiFn: func(_ context.Context, in []db.HashSetItem) error {
		items = in
		return nil
	}}
	repo := New(ms, testConfig())

	err := repo.Upsert(context.Background(), []passage.Embedded{{
		Passage: passage.Passage{ID: 42, DocName: "a.pdf", ChunkIndex: 0, IsTitle: true, Content: "Title"},
		Vector:  []float32{0.5, 0.5, 0},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Key != "docqa:chunk:42" {
		t.Fatalf("items = %+v", items)
	}
	f := items[0].Fields
	if f["is_title"] != "1" || f["chunk_id"] != "42" || len(f["vector"]) != 12 {
		t.Errorf("fields = %v", f)
	}

	p, err := fromHash(f)
	if err != nil {
		t.Fatalf("fromHash: %v", err)
	}
	if p.ID != 42 || !p.IsTitle || p.Content != "Title" {
		t.Errorf("decoded = %+v", p)
	}
}

func TestUpsert_RejectsWrongDims(t *testing.T) {
	repo := New(&mockStore{}, testConfig())
	err := repo.Upsert(context.Background(), []passage.Embedded{{Passage: passage.Passage{ID: 1}, Vector: []float32{1}}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureIndex(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		ms := &mockStore{
			indexExistsFn: func(context.Context, string) (bool, error) { return true, nil },
			createIndexFn: func(context.Context, *db.IndexDefinition) error {
				t.Fatal("must not create an existing index")
				return nil
			},
		}
		created, err := New(ms, testConfig()).EnsureIndex(context.Background())
		if err != nil || created {
			t.Errorf("EnsureIndex() = %v, %v", created, err)
		}
	})

	t.Run("creates hnsw cosine", func(t *testing.T) {
		var def *db.IndexDefinition
		ms := &mockStore{createIndexFn: func(_ context.Context, d *db.IndexDefinition) error {
			def = d
			return nil
		}}
		created, err := New(ms, testConfig()).EnsureIndex(context.Background())
		if err != nil || !created {
			t.Fatalf("EnsureIndex() = %v, %v", created, err)
		}
		v := def.Fields[len(def.Fields)-1]
		if v.VectorAlgo != db.VectorHNSW || v.VectorDistance != db.DistanceCosine || v.VectorDim != 3 {
			t.Errorf("vector field = %+v", v)
		}
		if def.Prefixes[0] != "docqa:chunk:" {
			t.Errorf("prefixes = %v", def.Prefixes)
		}
	})

	t.Run("race on create", func(t *testing.T) {
		ms := &mockStore{createIndexFn: func(context.Context, *db.IndexDefinition) error {
			return db.ErrIndexExists
		}}
		created, err := New(ms, testConfig()).EnsureIndex(context.Background())
		if err != nil || created {
			t.Errorf("EnsureIndex() = %v, %v", created, err)
		}
	})
}

func TestRecreate_IgnoresMissingIndex(t *testing.T) {
	var created bool
	ms := &mockStore{
		dropIndexFn:   func(context.Context, string) error { return db.ErrIndexNotFound },
		createIndexFn: func(context.Context, *db.IndexDefinition) error { created = true; return nil },
	}
	if err := New(ms, testConfig()).Recreate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("index was not created")
	}
}
