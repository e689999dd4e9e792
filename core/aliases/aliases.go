// Package aliases stores first-token command macros.
//
// Aliases are loaded once at startup and flushed to disk synchronously
// on every mutation. Without a writable storage path the store
// degrades to in-memory only.
package aliases

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/spf13/afero"
)

// Alias is one name/replacement pair.
type Alias struct {
	Name  string
	Value string
}

// Store holds the alias table for a shell session.
type Store struct {
	mu      sync.Mutex
	aliases map[string]string

	fs   afero.Fs
	path string
}

// NewStore creates a store persisted at path on fs. An empty path
// disables persistence. Loading is best effort: malformed lines are
// skipped, a missing file is not an error.
func NewStore(fs afero.Fs, path string) *Store {
	s := &Store{
		aliases: make(map[string]string),
		fs:      fs,
		path:    path,
	}
	if path != "" {
		s.load()
	}
	return s
}

// Get returns the replacement text for name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.aliases[name]
	return v, ok
}

// Set defines or replaces an alias and flushes the store.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	s.aliases[name] = value
	s.mu.Unlock()

	s.save()
}

// Unset removes an alias, reporting whether it existed, and flushes
// the store when it did.
func (s *Store) Unset(name string) bool {
	s.mu.Lock()
	_, ok := s.aliases[name]
	delete(s.aliases, name)
	s.mu.Unlock()

	if ok {
		s.save()
	}
	return ok
}

// List returns all aliases sorted by name.
func (s *Store) List() []Alias {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alias, 0, len(s.aliases))
	for name, value := range s.aliases {
		out = append(out, Alias{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Expand substitutes the line's first whitespace-delimited token if it
// names an alias, appending the remaining tokens verbatim. The
// substituted text is not re-expanded.
func (s *Store) Expand(line string) string {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return line
	}

	value, ok := s.Get(parts[0])
	if !ok {
		return line
	}

	if len(parts) > 1 {
		return value + " " + strings.Join(parts[1:], " ")
	}
	return value
}

// load reads the persisted alias file. Lines look like
// "alias name='value'"; comments and blanks are ignored.
func (s *Store) load() {
	fd, err := s.fs.Open(s.path)
	if err != nil {
		return
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "alias ") {
			continue
		}

		name, value, ok := parseDefinition(strings.TrimPrefix(line, "alias "))
		if !ok {
			continue
		}
		s.aliases[name] = value
	}
}

// parseDefinition splits "name=value", unquoting the value with
// shell-style rules so round-trips through save are lossless.
func parseDefinition(def string) (name, value string, ok bool) {
	split := strings.SplitN(def, "=", 2)
	if len(split) != 2 || strings.TrimSpace(split[0]) == "" {
		return "", "", false
	}
	name = strings.TrimSpace(split[0])

	raw := strings.TrimSpace(split[1])
	if raw == "" {
		return name, "", true
	}

	fields, err := shlex.Split(raw, true)
	if err != nil {
		// Unbalanced quoting; skip the line rather than guess.
		return "", "", false
	}
	return name, strings.Join(fields, " "), true
}

// save writes the whole table sorted by name. Values containing
// spaces or quotes are single-quoted with embedded single quotes
// escaped by the '\'' idiom.
func (s *Store) save() {
	if s.path == "" {
		return
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# slosh aliases - auto-generated")
	fmt.Fprintln(&buf, "# Format: alias name='value'")
	fmt.Fprintln(&buf)

	for _, a := range s.List() {
		fmt.Fprintf(&buf, "alias %s=%s\n", a.Name, quoteValue(a.Value))
	}

	_ = afero.WriteFile(s.fs, s.path, buf.Bytes(), 0644)
}

func quoteValue(value string) string {
	if !strings.ContainsAny(value, " '\"") {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
