package indexing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

const maxLineBytes = 4 << 20

// ReadPassages decodes pre-chunked passages, one JSON object per line.
// Blank lines are skipped. A passage without an id gets its line number.
// Duplicate ids and invalid passages are rejected.
func ReadPassages(r io.Reader) ([]passage.Passage, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []passage.Passage
	seen := make(map[int64]int)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var p passage.Passage
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if p.ID == 0 {
			p.ID = int64(line)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("line %d: id %d already used on line %d", line, p.ID, prev)
		}
		seen[p.ID] = line
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read passages: %w", err)
	}
	return out, nil
}
