package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

const sampleJava = `package demo;

class SampleTest {
    @Test
    void adds() {
        assertEquals(2, 1 + 1);
    }
}
`

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"Main.java", LangJava},
		{"src/test/java/demo/SampleTest.java", LangJava},
		{"Upper.JAVA", LangJava},
		{"main.go", LangUnknown},
		{"Main.class", LangUnknown},
		{"file", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := DetectLanguage(tt.path)
			if got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	tsLang, err := GetTreeSitterLanguage(LangJava)
	if err != nil {
		t.Fatalf("GetTreeSitterLanguage(LangJava) returned error: %v", err)
	}
	if tsLang == nil {
		t.Fatal("GetTreeSitterLanguage(LangJava) returned nil")
	}

	_, err = GetTreeSitterLanguage(LangUnknown)
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("GetTreeSitterLanguage(LangUnknown) error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SampleTest.java")
	if err := os.WriteFile(path, []byte(sampleJava), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	defer result.Close()

	if result.Language != LangJava {
		t.Errorf("Language = %v, want %v", result.Language, LangJava)
	}
	if result.Path != path {
		t.Errorf("Path = %q, want %q", result.Path, path)
	}
	if result.HasErrors() {
		t.Error("HasErrors() = true for valid source")
	}
	if root := result.Tree.RootNode(); root.Type() != "program" {
		t.Errorf("root type = %q, want program", root.Type())
	}
}

func TestParseFile_Missing(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseFile(filepath.Join(t.TempDir(), "Missing.java"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestParseFile_Unsupported(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseFile("notes.txt")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("ParseFile() error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte("class Broken { void x( { }"), LangJava, "Broken.java")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer result.Close()

	if !result.HasErrors() {
		t.Error("HasErrors() = false for malformed source")
	}
}

func TestFindNodesByType(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte(sampleJava), LangJava, "SampleTest.java")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer result.Close()

	methods := FindNodesByType(result.Tree.RootNode(), result.Source, "method_declaration")
	if len(methods) != 1 {
		t.Fatalf("found %d method declarations, want 1", len(methods))
	}

	name := methods[0].ChildByFieldName("name")
	if got := GetNodeText(name, result.Source); got != "adds" {
		t.Errorf("method name = %q, want adds", got)
	}
	if got := StartLine(methods[0]); got != 4 {
		t.Errorf("StartLine() = %d, want 4", got)
	}
	if got := EndLine(methods[0]); got != 7 {
		t.Errorf("EndLine() = %d, want 7", got)
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte(sampleJava), LangJava, "SampleTest.java")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	defer result.Close()

	visited := 0
	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		visited++
		return node.Type() != "class_declaration"
	})

	calls := 0
	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		if node.Type() == "method_invocation" {
			calls++
		}
		return node.Type() != "class_declaration"
	})
	if calls != 0 {
		t.Errorf("Walk descended into a skipped subtree (%d calls seen)", calls)
	}
	if visited == 0 {
		t.Error("Walk visited no nodes")
	}
}

func TestGetNodeText_Nil(t *testing.T) {
	if got := GetNodeText(nil, []byte("abc")); got != "" {
		t.Errorf("GetNodeText(nil) = %q, want empty", got)
	}
	if got := StartLine(nil); got != 0 {
		t.Errorf("StartLine(nil) = %d, want 0", got)
	}
}
