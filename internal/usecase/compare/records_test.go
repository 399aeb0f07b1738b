package compare

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain/mode"
)

func TestHeaderAndRecords(t *testing.T) {
	h := Header([]mode.Mode{mode.Baseline, mode.Learned})
	want := []string{"Question", "Baseline Answer", "Baseline Top Doc", "Learned Answer", "Learned Top Doc"}
	if !reflect.DeepEqual(h, want) {
		t.Errorf("Header = %v", h)
	}

	score := 0.5
	recs := Records([]Row{{
		Question: "Q1: guards",
		Cells: []Cell{
			{Mode: mode.Baseline, Answer: Abstained, TopDoc: "N/A"},
			{Mode: mode.Learned, Answer: "Fixed guards.", TopDoc: "osha.pdf", TopScore: &score},
		},
	}})
	wantRec := []string{"Q1: guards", Abstained, "N/A (Score: N/A)", "Fixed guards.", "osha.pdf (Score: 0.50)"}
	if len(recs) != 1 || !reflect.DeepEqual(recs[0], wantRec) {
		t.Errorf("Records = %v", recs)
	}
}
