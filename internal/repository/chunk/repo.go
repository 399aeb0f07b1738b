// Package chunk stores passages in SQLite and serves BM25 full-text search over them.
package chunk

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain/hit"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

const selectColumns = `c.id, c.doc_name, c.doc_title, c.doc_url, c.chunk_index, c.content, c.is_title, c.page_num`

// punctuation matches everything FTS5 could read as query syntax.
var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// conn is the consumer interface over *sql.DB.
type conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
}

// Repo is the passage store.
type Repo struct {
	conn conn
}

// New creates a chunk repository.
func New(c conn) *Repo {
	return &Repo{conn: c}
}

// PhraseQuery turns free text into a single FTS5 phrase: punctuation is
// dropped and the remainder quoted. Returns "" when nothing searchable is left.
func PhraseQuery(text string) string {
	cleaned := strings.Join(strings.Fields(punctuation.ReplaceAllString(text, "")), " ")
	if cleaned == "" {
		return ""
	}
	return `"` + cleaned + `"`
}

// LexicalSearch returns up to limit passages matching the query as a phrase,
// best first (ascending bm25).
func (r *Repo) LexicalSearch(ctx context.Context, query string, limit int) ([]hit.Lexical, error) {
	if limit <= 0 {
		return nil, nil
	}
	phrase := PhraseQuery(query)
	if phrase == "" {
		return nil, nil
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT `+selectColumns+`, bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		WHERE chunks_fts MATCH ?
		ORDER BY score
		LIMIT ?`, phrase, limit)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var hits []hit.Lexical
	for rows.Next() {
		var h hit.Lexical
		if err := scanPassage(rows, &h.Passage, &h.BM25); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return hits, nil
}

// Count returns the number of stored passages.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: err}
	}
	return n, nil
}

// InsertBatch validates and stores passages in one transaction.
// The FTS index is kept in sync by triggers.
func (r *Repo) InsertBatch(ctx context.Context, passages []passage.Passage) error {
	for i := range passages {
		if err := passages[i].Validate(); err != nil {
			return fmt.Errorf("passage %d: %w", passages[i].ID, err)
		}
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, doc_name, doc_title, doc_url, chunk_index, content, is_title, page_num)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer stmt.Close()

	for i := range passages {
		p := &passages[i]
		_, err := stmt.ExecContext(ctx,
			p.ID, p.DocName, p.DocTitle, p.DocURL, p.ChunkIndex, p.Content, boolToInt(p.IsTitle), p.PageNum,
		)
		if err != nil {
			return &db.Error{Op: db.OpInsert, Err: fmt.Errorf("chunk %d: %w", p.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// Reset removes every passage and rebuilds the empty FTS index.
func (r *Repo) Reset(ctx context.Context) error {
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return &db.Error{Op: db.OpRebuild, Err: err}
	}
	if _, err := r.conn.ExecContext(ctx, `INSERT INTO chunks_fts (chunks_fts) VALUES ('rebuild')`); err != nil {
		return &db.Error{Op: db.OpRebuild, Err: err}
	}
	return nil
}

// Ping checks that the database answers.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("chunk store ping: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPassage(s scanner, p *passage.Passage, extra ...any) error {
	var isTitle int
	dest := []any{&p.ID, &p.DocName, &p.DocTitle, &p.DocURL, &p.ChunkIndex, &p.Content, &isTitle, &p.PageNum}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	p.IsTitle = isTitle != 0
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
