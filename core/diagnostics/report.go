// Package diagnostics renders interpreter errors for humans: what
// failed, close-match suggestions, and hints for getting missing
// programs installed.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/afero"

	"github.com/slosh-shell/slosh/core/env"
	"github.com/slosh-shell/slosh/core/interp"
)

const maxSuggestions = 3

var (
	errLabel  = color.New(color.FgRed, color.Bold)
	hintLabel = color.New(color.FgYellow)
	hintName  = color.New(color.FgCyan, color.Bold)
	faintText = color.New(color.Faint)
)

// packageManagers maps a manager binary to its install invocation, in
// preference order.
var packageManagers = []struct {
	binary  string
	install string
}{
	{"pacman", "sudo pacman -S"},
	{"apt", "sudo apt install"},
	{"dnf", "sudo dnf install"},
	{"zypper", "sudo zypper install"},
	{"brew", "brew install"},
}

// Reporter formats interpreter errors onto a diagnostic stream.
type Reporter struct {
	Stderr io.Writer
	Env    env.Getter
	Fs     afero.Fs

	// Builtins lists names handled without a spawn, so suggestions can
	// offer them alongside PATH executables.
	Builtins []string

	// LookPath is overridable for tests; defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Report writes a one-line error, plus suggestions and install hints
// for unknown commands. It never changes control flow.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}

	var notFound *interp.CommandNotFoundError
	if errors.As(err, &notFound) {
		fmt.Fprintf(r.Stderr, "%s %s\n", errLabel.Sprint("error:"), err.Error())
		r.suggest(notFound.Program)
		r.installHint(notFound.Program)
		return
	}

	var execErr *interp.ExecError
	if errors.As(err, &execErr) {
		fmt.Fprintf(r.Stderr, "%s cannot execute %s: %s\n",
			errLabel.Sprint("error:"), hintName.Sprint(execErr.Program), execErr.Message)
		return
	}

	var ioErr *interp.IOError
	if errors.As(err, &ioErr) {
		fmt.Fprintf(r.Stderr, "%s %v\n", errLabel.Sprint("error:"), ioErr.Err)
		return
	}

	fmt.Fprintf(r.Stderr, "%s %v\n", errLabel.Sprint("error:"), err)
}

// suggest prints up to three known commands within edit distance two
// of the misspelled name.
func (r *Reporter) suggest(program string) {
	type candidate struct {
		name string
		dist int
	}

	var nearby []candidate
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, r.Builtins...), r.pathExecutables()...) {
		if seen[name] {
			continue
		}
		seen[name] = true

		dist := fuzzy.LevenshteinDistance(program, name)
		if dist > 0 && dist <= 2 {
			nearby = append(nearby, candidate{name: name, dist: dist})
		}
	}
	if len(nearby) == 0 {
		return
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].dist != nearby[j].dist {
			return nearby[i].dist < nearby[j].dist
		}
		return nearby[i].name < nearby[j].name
	})
	if len(nearby) > maxSuggestions {
		nearby = nearby[:maxSuggestions]
	}

	names := make([]string, len(nearby))
	for i, c := range nearby {
		names[i] = hintName.Sprint(c.name)
	}
	fmt.Fprintf(r.Stderr, "%s did you mean %s?\n", hintLabel.Sprint("hint:"), strings.Join(names, ", "))
}

// installHint prints an install command using the first package
// manager present on the system.
func (r *Reporter) installHint(program string) {
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	for _, pm := range packageManagers {
		if _, err := lookPath(pm.binary); err != nil {
			continue
		}
		fmt.Fprintf(r.Stderr, "%s try %s\n",
			hintLabel.Sprint("hint:"), faintText.Sprintf("%s %s", pm.install, program))
		return
	}

	r.pathNote()
}

// pathNote summarizes the search path when no package manager is
// available, so the user can see where lookup happened.
func (r *Reporter) pathNote() {
	path := r.Env.Getenv("PATH")
	if path == "" {
		return
	}

	dirs := filepath.SplitList(path)
	shown := dirs
	extra := 0
	if len(dirs) > 3 {
		shown = dirs[:3]
		extra = len(dirs) - 3
	}

	note := strings.Join(shown, ", ")
	if extra > 0 {
		note = fmt.Sprintf("%s, +%d more", note, extra)
	}
	fmt.Fprintf(r.Stderr, "%s searched %s\n", faintText.Sprint("note:"), note)
}

// pathExecutables lists the file names in every PATH directory.
func (r *Reporter) pathExecutables() []string {
	var out []string
	for _, dir := range filepath.SplitList(r.Env.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		infos, err := afero.ReadDir(r.Fs, dir)
		if err != nil {
			continue
		}
		for _, info := range infos {
			if info.IsDir() {
				continue
			}
			out = append(out, info.Name())
		}
	}
	return out
}
