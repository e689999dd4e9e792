package interp

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/slosh-shell/slosh/core/config"
	"github.com/slosh-shell/slosh/core/shell"
)

var (
	timingFast   = color.New(color.Faint)
	timingMedium = color.New(color.FgYellow)
	timingSlow   = color.New(color.FgRed)
)

// Session evaluates command lines for one interactive shell. It owns
// the last exit status and per-command timing display.
type Session struct {
	Exec   *Executor
	Config *config.Config

	// LastStatus is the exit status of the most recent command line.
	LastStatus int
	// LastCommandTime is the wall time the most recent line took.
	LastCommandTime time.Duration
}

// RunLine evaluates one command line end to end: alias expansion,
// tokenization, parsing with word expansion, then execution. Blank
// lines and comments are skipped. Errors are reported and folded into
// LastStatus, never returned; the interactive loop must keep going.
func (s *Session) RunLine(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}

	start := time.Now()
	s.LastStatus = s.evalLine(trimmed)
	s.LastCommandTime = time.Since(start)

	s.showTiming()
}

func (s *Session) evalLine(line string) int {
	expanded := s.Exec.Aliases.Expand(line)

	tokens := shell.Tokenize(expanded)
	if len(tokens) == 0 {
		return 0
	}

	node, err := shell.Parse(tokens, s.expander())
	if err != nil {
		s.Exec.report(err)
		return 1
	}

	status, err := s.Exec.Execute(node)
	if err != nil {
		s.Exec.report(err)
		return statusForError(err)
	}
	return status
}

// expander builds the word expander for this session. Command
// substitution recurses through the session's own interpreter so
// builtins work inside $(...).
func (s *Session) expander() *shell.Expander {
	return &shell.Expander{
		Env:   s.Exec.Env,
		Fs:    s.Exec.Fs,
		Subst: s.commandSubst,
	}
}

func (s *Session) commandSubst(command string) (string, error) {
	tokens := shell.Tokenize(s.Exec.Aliases.Expand(command))
	if len(tokens) == 0 {
		return "", nil
	}

	node, err := shell.Parse(tokens, s.expander())
	if err != nil {
		return "", err
	}

	out, err := s.Exec.Capture(node)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(out, "\n")), nil
}

// showTiming prints the elapsed time of the previous command when the
// configuration asks for it and the command was slow enough to matter.
func (s *Session) showTiming() {
	if s.Config == nil || !s.Config.ShowTimingEnabled() {
		return
	}

	threshold := time.Duration(s.Config.TimingThresholdMs) * time.Millisecond
	if s.LastCommandTime < threshold {
		return
	}

	painter := timingFast
	switch {
	case s.LastCommandTime >= 10*time.Second:
		painter = timingSlow
	case s.LastCommandTime >= time.Second:
		painter = timingMedium
	}

	fmt.Fprintf(s.Exec.Stderr, "%s\n", painter.Sprintf("⏱ %s", formatInterval(s.LastCommandTime)))
}
