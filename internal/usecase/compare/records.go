package compare

import (
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/mode"
)

// Header returns the table header for modes.
func Header(modes []mode.Mode) []string {
	h := []string{"Question"}
	for _, m := range modes {
		name := title(string(m))
		h = append(h, name+" Answer", name+" Top Doc")
	}
	return h
}

// Records flattens rows into table records matching Header.
func Records(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, 0, 1+2*len(r.Cells))
		rec = append(rec, r.Question)
		for _, c := range r.Cells {
			rec = append(rec, c.Answer, c.TopDocLabel())
		}
		out[i] = rec
	}
	return out
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
