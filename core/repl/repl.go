// Package repl drives the interactive read-eval-print loop on top of
// readline, with history persistence and multi-line continuation.
package repl

import (
	"io"
	"log"
	"strings"

	"github.com/abiosoft/readline"

	"github.com/slosh-shell/slosh/core/config"
	"github.com/slosh-shell/slosh/core/interp"
)

// Repl is one interactive shell loop bound to a session.
type Repl struct {
	Session *interp.Session
	Config  *config.Config

	// HistoryPath persists readline history. Empty disables it.
	HistoryPath string

	readline  *readline.Instance
	lastSaved string
}

// Run executes autostart lines and then reads commands until EOF or
// exit. The error is only for setup failures; per-command errors are
// handled inside the session.
func (r *Repl) Run() error {
	cfg := &readline.Config{
		HistoryFile:            r.HistoryPath,
		DisableAutoSaveHistory: true,
	}
	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()
	r.readline = rl

	for _, line := range r.Config.Autostart {
		r.Session.RunLine(line)
	}

	for {
		line, ok := r.readLine()
		if !ok {
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		r.saveHistory(line)
		r.Session.RunLine(line)
	}
}

// readLine reads one logical command, accumulating continuation lines
// until the input is complete. ok is false when input is closed.
func (r *Repl) readLine() (line string, ok bool) {
	r.readline.SetPrompt(Prompt(r.Session.Exec.Env, r.Config.PromptFormat, r.Session.LastStatus))

	var buffer string
	for {
		raw, err := r.readline.Readline()

		switch {
		case err == io.EOF:
			return "", false

		case err == readline.ErrInterrupt:
			// Interrupt clears the pending line.
			r.readline.SetPrompt(Prompt(r.Session.Exec.Env, r.Config.PromptFormat, r.Session.LastStatus))
			buffer = ""
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			continue
		}

		if buffer == "" {
			buffer = raw
		} else {
			buffer = joinContinuation(buffer, raw)
		}

		if !IsIncomplete(buffer) {
			return buffer, true
		}
		r.readline.SetPrompt(continuationPrompt())
	}
}

// saveHistory appends the line unless it repeats the previous entry.
func (r *Repl) saveHistory(line string) {
	if line == r.lastSaved {
		return
	}
	if err := r.readline.SaveHistory(line); err != nil {
		log.Printf("Error saving history: %v", err)
		return
	}
	r.lastSaved = line
}
