package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExpander substitutes from a fixed variable map and matches glob
// patterns against a fixed file list.
type fakeExpander struct {
	vars  map[string]string
	files []string
}

func (f *fakeExpander) ExpandTilde(word string) string {
	if home, ok := f.vars["HOME"]; ok && strings.HasPrefix(word, "~") {
		if word == "~" {
			return home
		}
		if strings.HasPrefix(word, "~/") {
			return home + word[1:]
		}
	}
	return word
}

func (f *fakeExpander) ExpandWord(word string) (string, error) {
	out := f.ExpandTilde(word)
	for name, value := range f.vars {
		out = strings.ReplaceAll(out, "$"+name, value)
	}
	return out, nil
}

func (f *fakeExpander) Glob(word string) []string {
	if !strings.ContainsAny(word, "*?[") {
		return nil
	}
	var matches []string
	for _, file := range f.files {
		if ok, _ := pathMatch(word, file); ok {
			matches = append(matches, file)
		}
	}
	return matches
}

func pathMatch(pattern, name string) (bool, error) {
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(name, pattern[1:]), nil
	}
	return pattern == name, nil
}

func parseLine(t *testing.T, line string, expander WordExpander) Node {
	t.Helper()
	node, err := Parse(Tokenize(line), expander)
	require.NoError(t, err)
	return node
}

func TestParseSimple(t *testing.T) {
	node := parseLine(t, "echo hello world", &fakeExpander{})
	assert.Equal(t, &Simple{Argv: []string{"echo", "hello", "world"}}, node)
}

func TestParseVariableExpansion(t *testing.T) {
	expander := &fakeExpander{vars: map[string]string{"NAME": "gopher"}}
	node := parseLine(t, "echo $NAME", expander)
	assert.Equal(t, &Simple{Argv: []string{"echo", "gopher"}}, node)
}

func TestParseGlob(t *testing.T) {
	expander := &fakeExpander{files: []string{"a.txt", "b.txt"}}

	node := parseLine(t, "cat *.txt", expander)
	assert.Equal(t, &Simple{Argv: []string{"cat", "a.txt", "b.txt"}}, node)
}

func TestParseGlobNoMatchKeepsLiteral(t *testing.T) {
	node := parseLine(t, "cat *.jpg", &fakeExpander{})
	assert.Equal(t, &Simple{Argv: []string{"cat", "*.jpg"}}, node)
}

func TestParsePipeNestsLeft(t *testing.T) {
	node := parseLine(t, "a | b | c", &fakeExpander{})

	assert.Equal(t, &Pipe{
		Left: &Pipe{
			Left:  &Simple{Argv: []string{"a"}},
			Right: &Simple{Argv: []string{"b"}},
		},
		Right: &Simple{Argv: []string{"c"}},
	}, node)
}

func TestParseChainFoldsLeft(t *testing.T) {
	node := parseLine(t, "a && b || c", &fakeExpander{})

	assert.Equal(t, &Chain{
		Left: &Chain{
			Left:  &Simple{Argv: []string{"a"}},
			Right: &Simple{Argv: []string{"b"}},
			And:   true,
		},
		Right: &Simple{Argv: []string{"c"}},
		And:   false,
	}, node)
}

func TestParseRedirectBindsTighterThanPipe(t *testing.T) {
	node := parseLine(t, "ls | grep foo > out.txt", &fakeExpander{})

	assert.Equal(t, &Pipe{
		Left: &Simple{Argv: []string{"ls"}},
		Right: &RedirectOut{
			Cmd:  &Simple{Argv: []string{"grep", "foo"}},
			File: "out.txt",
		},
	}, node)
}

func TestParseRedirectStacks(t *testing.T) {
	node := parseLine(t, "sort < in > out", &fakeExpander{})

	assert.Equal(t, &RedirectOut{
		Cmd: &RedirectIn{
			Cmd:  &Simple{Argv: []string{"sort"}},
			File: "in",
		},
		File: "out",
	}, node)
}

func TestParseRedirectAppend(t *testing.T) {
	node := parseLine(t, "echo hi >> log", &fakeExpander{})

	assert.Equal(t, &RedirectOut{
		Cmd:    &Simple{Argv: []string{"echo", "hi"}},
		File:   "log",
		Append: true,
	}, node)
}

func TestParseRedirectFilenameTildeOnly(t *testing.T) {
	expander := &fakeExpander{vars: map[string]string{"HOME": "/home/u", "F": "x"}}
	node := parseLine(t, "echo hi > ~/out-$F", expander)

	// Tilde expands in redirect targets, variables stay literal.
	assert.Equal(t, &RedirectOut{
		Cmd:  &Simple{Argv: []string{"echo", "hi"}},
		File: "/home/u/out-$F",
	}, node)
}

func TestParseBackground(t *testing.T) {
	node := parseLine(t, "sleep 5 &", &fakeExpander{})
	assert.Equal(t, &Simple{Argv: []string{"sleep", "5"}, Background: true}, node)
}

func TestParseBackgroundTerminatesLine(t *testing.T) {
	node := parseLine(t, "sleep 5 & echo after", &fakeExpander{})

	// Everything after & is dropped.
	assert.Equal(t, &Simple{Argv: []string{"sleep", "5"}, Background: true}, node)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":                      "",
		"pipe without right side":    "ls |",
		"leading pipe":               "| wc",
		"redirect missing file":      "echo hi >",
		"redirect operator filename": "echo hi > > x",
		"chain without right side":   "a &&",
	}

	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(Tokenize(line), &fakeExpander{})
			assert.Error(t, err)
		})
	}
}
