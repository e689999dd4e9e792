// Package dirfreq keeps visit counts for directories changed into, so
// the shell can surface frequently used paths.
package dirfreq

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one directory with its visit count.
type Entry struct {
	Path  string
	Count uint64
}

// Store persists counts as tab-separated "path\tcount" lines. An
// empty path disables the store entirely.
type Store struct {
	fs   afero.Fs
	path string
}

func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load reads the current counts. Missing or unreadable files yield an
// empty map.
func (s *Store) Load() map[string]uint64 {
	out := make(map[string]uint64)
	if s.path == "" {
		return out
	}

	fd, err := s.fs.Open(s.path)
	if err != nil {
		return out
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.LastIndex(line, "\t")
		if idx < 0 {
			continue
		}
		count, err := strconv.ParseUint(line[idx+1:], 10, 64)
		if err != nil {
			continue
		}
		out[line[:idx]] = count
	}
	return out
}

// Increment bumps the count for dir, keyed by its absolute path, and
// rewrites the store atomically.
func (s *Store) Increment(dir string) {
	if s.path == "" || dir == "" {
		return
	}

	key := dir
	if abs, err := filepath.Abs(dir); err == nil {
		key = abs
	}

	counts := s.Load()
	counts[key]++
	s.save(counts)
}

// Entries returns all counts sorted by descending count, ties broken
// by path.
func (s *Store) Entries() []Entry {
	counts := s.Load()

	out := make([]Entry, 0, len(counts))
	for path, count := range counts {
		out = append(out, Entry{Path: path, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (s *Store) save(counts map[string]uint64) {
	var buf bytes.Buffer
	for path, count := range counts {
		fmt.Fprintf(&buf, "%s\t%d\n", path, count)
	}

	// Write-then-rename keeps a crash from truncating the store.
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0644); err != nil {
		return
	}
	_ = s.fs.Rename(tmp, s.path)
}
