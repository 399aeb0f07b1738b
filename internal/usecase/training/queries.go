package training

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Query is one labelled training question. Passages whose content mentions
// any keyword count as relevant.
type Query struct {
	Query    string   `yaml:"query"`
	Keywords []string `yaml:"keywords"`
	DocTitle string   `yaml:"doc_title"`
}

// Validate checks that the query can produce labels.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return errors.New("query is empty")
	}
	for _, k := range q.Keywords {
		if strings.TrimSpace(k) != "" {
			return nil
		}
	}
	return errors.New("no keywords")
}

// Matches reports whether content contains any keyword, ignoring case.
func (q Query) Matches(content string) bool {
	text := strings.ToLower(content)
	for _, k := range q.Keywords {
		k = strings.TrimSpace(k)
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// ReadQueries decodes a YAML list of training queries.
func ReadQueries(r io.Reader) ([]Query, error) {
	var qs []Query
	if err := yaml.NewDecoder(r).Decode(&qs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("training set is empty")
		}
		return nil, fmt.Errorf("decode training set: %w", err)
	}
	if len(qs) == 0 {
		return nil, errors.New("training set is empty")
	}
	for i, q := range qs {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
	}
	return qs, nil
}
