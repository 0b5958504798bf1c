package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"text", FormatText},
		{"", FormatText},
		{"bogus", FormatText},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatterWritesToFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.json")

	f, err := NewFormatter(FormatJSON, out, true)
	if err != nil {
		t.Fatalf("NewFormatter failed: %v", err)
	}
	if f.Colored() {
		t.Error("color must be disabled for file output")
	}

	if err := f.Output(map[string]int{"count": 3}); err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["count"] != 3 {
		t.Errorf("count = %d, want 3", decoded["count"])
	}
}

func sampleTable() *Table {
	return NewTable(
		"Files",
		[]string{"File", "Functions"},
		[][]string{
			{"a.py", "2"},
			{"b.py", "5"},
		},
		[]string{"Total: 2", "7"},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Files", "a.py", "b.py", "Total: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "## Files") {
		t.Errorf("markdown output missing title:\n%s", out)
	}
	if !strings.Contains(out, "| File | Functions |") {
		t.Errorf("markdown output missing header row:\n%s", out)
	}
	if !strings.Contains(out, "| --- | --- |") {
		t.Errorf("markdown output missing separator row:\n%s", out)
	}
}

func TestTableRenderDataFallsBackToRows(t *testing.T) {
	data := sampleTable().RenderData()

	rows, ok := data.([]map[string]string)
	if !ok {
		t.Fatalf("RenderData returned %T, want []map[string]string", data)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["File"] != "a.py" {
		t.Errorf("rows[0][File] = %q, want a.py", rows[0]["File"])
	}
}

func TestTableRenderDataPrefersStructured(t *testing.T) {
	type payload struct{ N int }
	table := NewTable("t", nil, nil, nil, payload{N: 7})

	data, ok := table.RenderData().(payload)
	if !ok {
		t.Fatalf("RenderData returned %T, want payload", table.RenderData())
	}
	if data.N != 7 {
		t.Errorf("N = %d, want 7", data.N)
	}
}
