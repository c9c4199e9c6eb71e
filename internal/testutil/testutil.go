// Package testutil holds fixtures and filesystem helpers shared by tests.
package testutil

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// CalcTest is a JUnit class exercising every report shape: an empty test,
// repeated assertions, a loop with a print, generics, try/catch/finally,
// an overload and a helper that is not a test.
const CalcTest = `package calc;

import org.junit.jupiter.api.Test;

class CalcTest {
    @Test
    void empty() {
    }

    @Test
    void adds() {
        // same check twice
        assertEquals(1, 2);
        assertEquals(1, 2);
    }

    @Test
    void loops() {
        for (int i = 0; i < 10; i++) { System.out.println(i); }
    }

    @Test
    void generics() {
        List<String> xs = new ArrayList<>();
    }

    @Test
    void guarded() {
        try {
            open();
        } catch (Exception e) {
            fail();
        } finally {
            close();
        }
    }

    @Test
    void adds(int x) {
        assertTrue(x > 0);
    }

    void helper() {
        assertTrue(true);
    }
}
`

// PlainClass has no test methods.
const PlainClass = `package calc;

class Calc {
    int add(int a, int b) { return a + b; }
}
`

// WriteFile writes content to a file in the real filesystem, creating
// parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

// ListFiles returns every file under root as a sorted slash-separated path
// relative to root.
func ListFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir(%s) error: %v", root, err)
	}
	sort.Strings(files)
	return files
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
