package shell

import (
	"errors"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/slosh-shell/slosh/core/env"
)

// SubstFunc runs a command substitution body as a subordinate command
// line and returns its captured standard output.
type SubstFunc func(command string) (string, error)

// Expander implements WordExpander against an environment, a
// filesystem for glob matching, and a command-substitution runner.
type Expander struct {
	Env   env.Getter
	Fs    afero.Fs
	Subst SubstFunc
}

var _ WordExpander = (*Expander)(nil)

// ExpandTilde replaces a leading ~ or ~/ with $HOME. A tilde anywhere
// else in the word is literal.
func (e *Expander) ExpandTilde(word string) string {
	home := e.Env.Getenv("HOME")
	if home == "" {
		return word
	}

	if word == "~" {
		return home
	}
	if rest, ok := trimPrefix(word, "~/"); ok {
		return home + "/" + rest
	}
	return word
}

func trimPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// ExpandWord resolves tilde, $NAME, ${NAME}, $(...) and `...` in one
// left-to-right scan. Unset variables expand to the empty string.
// Quote information was discarded at tokenization, so expansion
// applies to every word regardless of how it was quoted.
func (e *Expander) ExpandWord(word string) (string, error) {
	runes := []rune(e.ExpandTilde(word))

	var out strings.Builder
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		switch {
		case ch == '$' && i+1 < len(runes) && runes[i+1] == '(':
			// Nested-parenthesis-aware capture of the body.
			depth := 1
			j := i + 2
			var body strings.Builder
			for ; j < len(runes); j++ {
				if runes[j] == '(' {
					depth++
				}
				if runes[j] == ')' {
					depth--
					if depth == 0 {
						break
					}
				}
				body.WriteRune(runes[j])
			}
			text, err := e.substitute(body.String())
			if err != nil {
				return "", err
			}
			out.WriteString(text)
			i = j

		case ch == '$' && i+1 < len(runes) && runes[i+1] == '{':
			j := i + 2
			var name strings.Builder
			for ; j < len(runes); j++ {
				if runes[j] == '}' {
					break
				}
				name.WriteRune(runes[j])
			}
			out.WriteString(e.Env.Getenv(name.String()))
			i = j

		case ch == '$':
			j := i + 1
			var name strings.Builder
			for ; j < len(runes); j++ {
				if !isNameRune(runes[j]) {
					break
				}
				name.WriteRune(runes[j])
			}
			if name.Len() == 0 {
				out.WriteRune('$')
			} else {
				out.WriteString(e.Env.Getenv(name.String()))
			}
			i = j - 1

		case ch == '`':
			j := i + 1
			var body strings.Builder
			for ; j < len(runes); j++ {
				if runes[j] == '`' {
					break
				}
				body.WriteRune(runes[j])
			}
			text, err := e.substitute(body.String())
			if err != nil {
				return "", err
			}
			out.WriteString(text)
			i = j

		default:
			out.WriteRune(ch)
		}
	}

	return out.String(), nil
}

func (e *Expander) substitute(command string) (string, error) {
	if e.Subst == nil {
		return "", errors.New("command substitution failed")
	}
	text, err := e.Subst(command)
	if err != nil {
		return "", errors.New("command substitution failed")
	}
	return strings.TrimRight(text, " \t\r\n"), nil
}

func isNameRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

// Glob matches a fully-expanded word against the filesystem. Words
// without glob metacharacters, patterns that match nothing, and
// malformed patterns all yield nil: the caller keeps the word as a
// single literal argument. Globbing never deletes a word.
func (e *Expander) Glob(word string) []string {
	if !strings.ContainsAny(word, "*?[") {
		return nil
	}

	matches, err := afero.Glob(e.Fs, word)
	if err != nil || len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)
	return matches
}
