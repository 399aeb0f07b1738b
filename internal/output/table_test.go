package output

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, []string{"Question", "Hybrid Answer"}, 0)
	tbl.AddRows([][]string{
		{"Q1: guards", "Fixed guards."},
		{"Q2: lockout", "Abstained"},
	})
	if err := tbl.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Question", "Hybrid Answer", "Q1: guards", "Abstained"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	header := []string{"Question", "Answer"}
	rows := [][]string{{"Q1: what, exactly?", "It says \"stop\"."}}
	if err := WriteCSV(&buf, header, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := append([][]string{header}, rows...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}
