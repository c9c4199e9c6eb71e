package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type report struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c := newCache(t)
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "nested", "cache", "dir")
	if _, err := New(cacheDir, 24, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestSetAndGet(t *testing.T) {
	c := newCache(t)
	want := report{Path: "CalcTest.java", Methods: []string{"<test_method name=\"adds\"><empty/></test_method>"}}

	if err := c.Set("/src/CalcTest.java", "fp1", want); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var got report
	if !c.Get("/src/CalcTest.java", "fp1", &got) {
		t.Fatal("Get() returned false for existing key")
	}
	if got.Path != want.Path || len(got.Methods) != 1 || got.Methods[0] != want.Methods[0] {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestGetFingerprintMismatch(t *testing.T) {
	c := newCache(t)
	if err := c.Set("k", "fp1", report{Path: "A"}); err != nil {
		t.Fatal(err)
	}
	var got report
	if c.Get("k", "fp2", &got) {
		t.Error("Get() should miss when the fingerprint changed")
	}
}

func TestGetNonExistent(t *testing.T) {
	c := newCache(t)
	var got report
	if c.Get("nonexistent-key", "fp", &got) {
		t.Error("Get() should return false for non-existent key")
	}
}

func TestInvalidate(t *testing.T) {
	c := newCache(t)
	if err := c.Set("k", "fp", report{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate("k"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	var got report
	if c.Get("k", "fp", &got) {
		t.Error("Get() should miss after Invalidate()")
	}
	if err := c.Invalidate("k"); err != nil {
		t.Errorf("Invalidate() of a missing key should not fail: %v", err)
	}
}

func TestClear(t *testing.T) {
	c := newCache(t)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(k, "fp", report{Path: k}); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(c.Dir()); !os.IsNotExist(err) {
		t.Error("Clear() should remove the cache directory")
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() after Clear() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d after Clear(), want 0", stats.Entries)
	}
}

func TestDisabledCache(t *testing.T) {
	c, _ := New("", 0, false)

	if err := c.Set("k", "fp", report{}); err != nil {
		t.Errorf("Set() on disabled cache error: %v", err)
	}
	var got report
	if c.Get("k", "fp", &got) {
		t.Error("Get() on disabled cache should miss")
	}
	if err := c.Invalidate("k"); err != nil {
		t.Errorf("Invalidate() on disabled cache error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache error: %v", err)
	}
	if n, err := c.Prune(); n != 0 || err != nil {
		t.Errorf("Prune() on disabled cache = %d, %v", n, err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() on disabled cache = %+v, %v", stats, err)
	}
}

func TestFingerprint(t *testing.T) {
	src := []byte("class CalcTest {}")

	base := Fingerprint(src, "indent=true", "smells=before")
	if len(base) != 64 {
		t.Errorf("Fingerprint length = %d, want 64", len(base))
	}
	if base != Fingerprint(src, "indent=true", "smells=before") {
		t.Error("Fingerprint should be deterministic")
	}
	if base == Fingerprint(src, "indent=false", "smells=before") {
		t.Error("Fingerprint should change with settings")
	}
	if base == Fingerprint([]byte("class Other {}"), "indent=true", "smells=before") {
		t.Error("Fingerprint should change with content")
	}
	if Fingerprint(src, "ab", "c") == Fingerprint(src, "a", "bc") {
		t.Error("Fingerprint settings should be delimited")
	}
}

func TestGetStats(t *testing.T) {
	c := newCache(t)
	for _, k := range []string{"a", "b"} {
		if err := c.Set(k, "fp", report{Path: k}); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalSize <= 0 {
		t.Error("TotalSize should be positive")
	}
}

func TestTTLExpiration(t *testing.T) {
	c := newCache(t)
	c.ttl = time.Minute

	if err := c.Set("k", "fp", report{}); err != nil {
		t.Fatal(err)
	}
	var got report
	if !c.Get("k", "fp", &got) {
		t.Fatal("Get() should hit before the TTL expires")
	}

	// Age the entry on disk instead of sleeping.
	path := c.keyPath("k")
	entry, err := readEntry(path)
	if err != nil {
		t.Fatal(err)
	}
	entry.Timestamp = time.Now().Add(-time.Hour)
	rewriteEntry(t, path, entry)

	if c.Get("k", "fp", &got) {
		t.Error("Get() should miss after the TTL expires")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestPrune(t *testing.T) {
	c := newCache(t)
	c.ttl = time.Minute

	for _, k := range []string{"fresh", "stale"} {
		if err := c.Set(k, "fp", report{Path: k}); err != nil {
			t.Fatal(err)
		}
	}
	stale := c.keyPath("stale")
	entry, err := readEntry(stale)
	if err != nil {
		t.Fatal(err)
	}
	entry.Timestamp = time.Now().Add(-time.Hour)
	rewriteEntry(t, stale, entry)

	if err := os.WriteFile(filepath.Join(c.Dir(), "garbage.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}

	removed, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	var got report
	if !c.Get("fresh", "fp", &got) {
		t.Error("fresh entry should survive Prune()")
	}
}

func TestKeyPath(t *testing.T) {
	c := newCache(t)

	path1 := c.keyPath("key1")
	path2 := c.keyPath("key2")

	if path1 == path2 {
		t.Error("Different keys should produce different paths")
	}
	if path1 != c.keyPath("key1") {
		t.Error("Same keys should produce same paths")
	}
	if filepath.Ext(path1) != ".json" {
		t.Errorf("Key path should end with .json, got %s", path1)
	}
	if filepath.Dir(path1) != c.dir {
		t.Error("Key path should be in cache directory")
	}
}

func TestSpecialCharactersInKey(t *testing.T) {
	c := newCache(t)

	keys := []string{
		"/path/to/CalcTest.java",
		"C:\\src\\CalcTest.java",
		"dir with spaces/A Test.java",
		"unicode/文件/ATest.java",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			if err := c.Set(key, "fp", report{Path: key}); err != nil {
				t.Fatalf("Set(%q) error: %v", key, err)
			}
			var got report
			if !c.Get(key, "fp", &got) || got.Path != key {
				t.Errorf("Get(%q) = %+v", key, got)
			}
		})
	}
}

func rewriteEntry(t *testing.T, path string, entry *Entry) {
	t.Helper()
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
}
