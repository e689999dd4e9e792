// Package env provides the shell's environment context.
//
// The interpreter never mutates the process-wide environment directly;
// export and unset operate on an Env that is handed to every spawned
// command, so tests can run against isolated environments.
package env

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Getter is the read-only view of an environment used by expansion.
type Getter interface {
	Getenv(key string) string
}

// Env is an in-memory environment keyed by variable name.
type Env struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ Getter = (*Env)(nil)

// New creates an empty environment.
func New() *Env {
	return &Env{}
}

// NewFromEnviron creates an environment from "KEY=VALUE" entries.
// Entries without '=' get an empty value.
func NewFromEnviron(environ []string) *Env {
	out := New()
	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}
	return out
}

// NewFromOS creates an environment seeded from the process environment.
func NewFromOS() *Env {
	return NewFromEnviron(os.Environ())
}

// Setenv sets the value of the variable named by key.
func (m *Env) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// Unsetenv removes the variable named by key.
func (m *Env) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// LookupEnv retrieves the value of the variable named by key and
// reports whether it was present.
func (m *Env) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv retrieves the value of the variable named by key, or "" if
// it is unset.
func (m *Env) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ returns the environment as sorted "KEY=VALUE" entries,
// suitable for exec.Cmd.Env.
func (m *Env) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
