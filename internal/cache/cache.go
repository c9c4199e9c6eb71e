// Package cache stores generated reports on disk so unchanged sources are
// not parsed again. Entries are keyed by source path and validated against
// a fingerprint of the source content and the settings that shape the
// output.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Cache provides file-based caching of generated reports.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is the on-disk form of a cached value.
type Entry struct {
	Key         string          `json:"key"`
	Fingerprint string          `json:"fingerprint"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// New creates a new cache instance. A non-positive TTL never expires entries.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Fingerprint computes a BLAKE3 digest of the source content and the
// settings it will be rendered with. Settings are length-delimited so
// ("ab", "c") and ("a", "bc") differ.
func Fingerprint(content []byte, settings ...string) string {
	h := blake3.New()
	for _, s := range settings {
		fmt.Fprintf(h, "%d:%s;", len(s), s)
	}
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Get decodes the entry for key into v when it exists, matches
// fingerprint and has not expired.
func (c *Cache) Get(key, fingerprint string, v any) bool {
	if !c.enabled {
		return false
	}

	path := c.keyPath(key)
	entry, err := readEntry(path)
	if err != nil {
		return false
	}
	if entry.Key != key || entry.Fingerprint != fingerprint {
		return false
	}
	if c.expired(entry) {
		os.Remove(path)
		return false
	}
	return json.Unmarshal(entry.Data, v) == nil
}

// Set stores v for key under fingerprint.
func (c *Cache) Set(key, fingerprint string, v any) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entryData, err := json.Marshal(Entry{
		Key:         key,
		Fingerprint: fingerprint,
		Timestamp:   time.Now(),
		Data:        data,
	})
	if err != nil {
		return err
	}

	// Write then rename so concurrent readers never see a partial entry.
	path := c.keyPath(key)
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(entryData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Invalidate removes a cache entry. A missing entry is not an error.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	if err := os.Remove(c.keyPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// Prune removes expired and unreadable entries and returns how many were
// removed.
func (c *Cache) Prune() (int, error) {
	if !c.enabled {
		return 0, nil
	}

	removed := 0
	err := c.walkEntries(func(path string, _ fs.FileInfo) {
		entry, err := readEntry(path)
		if err != nil || c.expired(entry) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	})
	return removed, err
}

func (c *Cache) expired(e *Entry) bool {
	return c.ttl > 0 && time.Since(e.Timestamp) > c.ttl
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(key)))
}

func (c *Cache) walkEntries(fn func(path string, info fs.FileInfo)) error {
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		fn(path, info)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := c.walkEntries(func(_ string, info fs.FileInfo) {
		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}

	return stats, nil
}
