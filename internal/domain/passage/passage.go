package passage

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Passage is one chunk of a source document. Read-only once stored.
type Passage struct {
	ID         int64  `json:"id"`
	DocName    string `json:"doc_name"`
	DocTitle   string `json:"doc_title"`
	DocURL     string `json:"doc_url"`
	PageNum    int    `json:"page_num"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	IsTitle    bool   `json:"is_title"`
}

// Embedded is a passage paired with its embedding, ready to index.
type Embedded struct {
	Passage Passage
	Vector  []float32
}

// Validate checks the storage invariants of a passage.
func (p *Passage) Validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: content is required", domain.ErrInvalidPassage)
	}
	if p.DocName == "" {
		return fmt.Errorf("%w: doc_name is required", domain.ErrInvalidPassage)
	}
	if p.ChunkIndex < 0 {
		return fmt.Errorf("%w: chunk_index must be >= 0", domain.ErrInvalidPassage)
	}
	if p.ID < 0 {
		return fmt.Errorf("%w: id must be >= 0", domain.ErrInvalidPassage)
	}
	return nil
}

// IsTitleChunk reports whether the passage is the title/lead excerpt of its document.
func (p *Passage) IsTitleChunk() bool { return p.ChunkIndex == 0 }

// Truncate returns the content capped at max runes. max <= 0 disables the cap.
func (p *Passage) Truncate(max int) string {
	if max <= 0 {
		return p.Content
	}
	n := 0
	for i := range p.Content {
		if n == max {
			return p.Content[:i]
		}
		n++
	}
	return p.Content
}
