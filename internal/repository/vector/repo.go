// Package vector is the nearest-neighbour index over passage embeddings.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain/hit"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// store is the consumer interface for vector operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Config describes the FT index holding passage vectors.
type Config struct {
	IndexName      string
	KeyPrefix      string
	Dimensions     int
	M              int
	EFConstruction int
}

// Repo implements the vector index on an FT.SEARCH-capable store.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Search returns the k nearest passages to vec, nearest first.
func (r *Repo) Search(ctx context.Context, vec []float32, k int) ([]hit.Vector, error) {
	if len(vec) != r.cfg.Dimensions {
		return nil, fmt.Errorf("query vector has %d dims, index has %d", len(vec), r.cfg.Dimensions)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		VectorField:  fieldVector,
		Vector:       vec,
		K:            k,
		ReturnFields: returnFields,
		RawScores:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.cfg.IndexName, err)
	}
	if sr == nil {
		return nil, nil
	}

	hits := make([]hit.Vector, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		p, err := fromHash(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Key, err)
		}
		hits = append(hits, hit.Vector{Passage: p, Distance: entry.Score})
	}
	return hits, nil
}

// Upsert writes records in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, records []passage.Embedded) error {
	items := make([]db.HashSetItem, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Vector) != r.cfg.Dimensions {
			return fmt.Errorf("chunk %d: vector has %d dims, want %d", rec.Passage.ID, len(rec.Vector), r.cfg.Dimensions)
		}
		items = append(items, db.HashSetItem{
			Key:    r.key(rec.Passage.ID),
			Fields: toHash(&rec.Passage, rec.Vector),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d vectors: %w", len(items), err)
	}
	return nil
}

// EnsureIndex creates the HNSW cosine index if it does not exist.
// Reports whether it was created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.cfg.IndexName, err)
	}
	if exists {
		return false, nil
	}

	def, err := r.definition()
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.cfg.IndexName, err)
	}
	return true, nil
}

// Recreate drops and recreates the index. Existing hashes are re-indexed by the engine.
func (r *Repo) Recreate(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.cfg.IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.cfg.IndexName, err)
	}
	def, err := r.definition()
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.cfg.IndexName, err)
	}
	return nil
}

func (r *Repo) definition() (*db.IndexDefinition, error) {
	def, err := db.NewIndex(r.cfg.IndexName).
		Prefix(r.cfg.KeyPrefix).
		Numeric(fieldChunkID).
		Tag(fieldDocName).
		VectorHNSW(fieldVector, r.cfg.Dimensions, db.DistanceCosine, r.cfg.M, r.cfg.EFConstruction).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return def, nil
}

func (r *Repo) key(id int64) string {
	return r.cfg.KeyPrefix + strconv.FormatInt(id, 10)
}
