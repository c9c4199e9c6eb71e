package output

import (
	"bytes"
	"encoding/json"
	"errors"
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
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterStdout(t *testing.T) {
	f, err := NewFormatter(FormatJSON, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.Format() != FormatJSON {
		t.Errorf("Format() = %q, want json", f.Format())
	}
	if f.Writer() != os.Stdout {
		t.Error("Writer() should be stdout")
	}
	if !f.Colored() {
		t.Error("Colored() should be true")
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should disable color")
	}
	if err := f.Output(map[string]int{"files": 2}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"files": 2`) {
		t.Errorf("file content = %q", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false)
	if err == nil {
		t.Error("NewFormatter() should fail for an invalid path")
	}
}

func sampleTable() *Table {
	return NewTable(
		"Reports",
		[]string{"File", "Methods", "Roulette"},
		[][]string{
			{"CalcTest.java", "4", "1"},
			{"a|b/MathTest.java", "2", "0"},
		},
		[]string{"Total", "6", "1"},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Reports", "=======", "CalcTest.java", "MathTest.java"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	want := "## Reports\n\n" +
		"| File | Methods | Roulette |\n" +
		"| --- | --- | --- |\n" +
		"| CalcTest.java | 4 | 1 |\n" +
		"| a\\|b/MathTest.java | 2 | 0 |\n" +
		"| Total | 6 | 1 |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	rows, ok := sampleTable().RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData() type = %T", sampleTable().RenderData())
	}
	if len(rows) != 2 || rows[0]["File"] != "CalcTest.java" || rows[0]["Roulette"] != "1" {
		t.Errorf("RenderData() = %v", rows)
	}

	withData := NewTable("", nil, nil, nil, map[string]int{"files": 1})
	if _, ok := withData.RenderData().(map[string]int); !ok {
		t.Error("RenderData() should return Data when set")
	}
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:   "Summary",
		Content: "2 files",
		Sections: []Section{
			{Title: "Smells", Content: "1 roulette"},
		},
	}

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	wantText := "Summary\n=======\n2 files\n\nSmells\n------\n1 roulette\n"
	if text.String() != wantText {
		t.Errorf("RenderText() = %q, want %q", text.String(), wantText)
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	wantMD := "## Summary\n\n2 files\n\n### Smells\n\n1 roulette\n\n"
	if md.String() != wantMD {
		t.Errorf("RenderMarkdown() = %q, want %q", md.String(), wantMD)
	}

	if s.RenderData() != s {
		t.Error("RenderData() should return the section itself without Data")
	}
}

func TestReportRender(t *testing.T) {
	r := &Report{
		Title: "testxml",
		Sections: []Renderable{
			&Section{Title: "Totals", Content: "ok"},
			sampleTable(),
		},
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md.String(), "# testxml\n\n## Totals") {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}

	data, ok := r.RenderData().(map[string]any)
	if !ok {
		t.Fatalf("RenderData() type = %T", r.RenderData())
	}
	if data["title"] != "testxml" {
		t.Errorf("title = %v", data["title"])
	}
	if parts := data["sections"].([]any); len(parts) != 2 {
		t.Errorf("sections = %d, want 2", len(parts))
	}
}

func TestFormatterOutputRenderable(t *testing.T) {
	section := &Section{Title: "Totals", Data: map[string]int{"files": 2, "methods": 5}}

	tests := []struct {
		format Format
		check  func(t *testing.T, out string)
	}{
		{FormatText, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "Totals\n") {
				t.Errorf("text output = %q", out)
			}
		}},
		{FormatMarkdown, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "## Totals") {
				t.Errorf("markdown output = %q", out)
			}
		}},
		{FormatJSON, func(t *testing.T, out string) {
			var got map[string]int
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON %q: %v", out, err)
			}
			if got["files"] != 2 || got["methods"] != 5 {
				t.Errorf("json output = %+v", got)
			}
		}},
		{FormatTOON, func(t *testing.T, out string) {
			if !strings.Contains(out, "files: 2") || !strings.Contains(out, "methods: 5") {
				t.Errorf("toon output = %q", out)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(tt.format, &buf, false)
			if err := f.Output(section); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]string{"path": "CalcTest.java"}

	var md bytes.Buffer
	if err := NewWriterFormatter(FormatMarkdown, &md, false).Output(data); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md.String(), "```json\n") || !strings.HasSuffix(md.String(), "```\n") {
		t.Errorf("markdown raw output = %q", md.String())
	}

	var text bytes.Buffer
	if err := NewWriterFormatter(FormatText, &text, false).Output(data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), `"path": "CalcTest.java"`) {
		t.Errorf("text raw output = %q", text.String())
	}
}

func TestFormatterOutputJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := NewWriterFormatter(FormatJSON, &buf, false).Output(make(chan int))
	var unsupported *json.UnsupportedTypeError
	if !errors.As(err, &unsupported) {
		t.Errorf("Output(chan) error = %v, want UnsupportedTypeError", err)
	}
}

func TestMarshalTOON(t *testing.T) {
	out, err := MarshalTOON(map[string]any{"written": 3})
	if err != nil {
		t.Fatalf("MarshalTOON() error: %v", err)
	}
	if !strings.Contains(out, "written: 3") {
		t.Errorf("MarshalTOON() = %q", out)
	}
}

func TestFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)

	f.Success("wrote %d reports", 3)
	f.Warning("skipped %s", "Big.java")
	f.Error("failed %s", "Bad.java")
	f.Info("done")

	want := "wrote 3 reports\nWARNING: skipped Big.java\nERROR: failed Bad.java\ndone\n"
	if buf.String() != want {
		t.Errorf("messages = %q, want %q", buf.String(), want)
	}
}

func TestSmellColor(t *testing.T) {
	if !strings.Contains(SmellColor(0, "0"), "0") || !strings.Contains(SmellColor(2, "2"), "2") {
		t.Error("SmellColor() should keep the text")
	}
}
