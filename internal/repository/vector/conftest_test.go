package vector

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func testConfig() Config {
	return Config{IndexName: "docqa:chunks", KeyPrefix: "docqa:chunk:", Dimensions: 3, M: 16, EFConstruction: 200}
}

func entry(id, distance string) db.SearchEntry {
	d := 0.0
	if distance != "" {
		d = mustFloat(distance)
	}
	return db.SearchEntry{
		Key:   "docqa:chunk:" + id,
		Score: d,
		Fields: map[string]string{
			"chunk_id": id, "doc_name": "doc-" + id + ".pdf", "doc_title": "Doc " + id,
			"doc_url": "", "page_num": "3", "chunk_index": "1", "content": "content " + id, "is_title": "0",
		},
	}
}
