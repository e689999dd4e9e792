// Package interp walks parsed command trees, dispatching nodes to
// builtins or OS processes while honoring pipes, redirections,
// chaining and backgrounding.
//
// Pipelines are buffered, not streamed: each stage's output is fully
// materialized in memory before the next stage starts consuming it.
package interp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/slosh-shell/slosh/core/aliases"
	"github.com/slosh-shell/slosh/core/env"
	"github.com/slosh-shell/slosh/core/shell"
)

// Executor evaluates command trees against an environment, a job
// table, an alias store, and a builtin dispatcher.
type Executor struct {
	Env     *env.Env
	Fs      afero.Fs
	Jobs    *JobTable
	Aliases *aliases.Store

	// Dispatch is consulted before any external spawn.
	Dispatch Dispatcher
	// Report renders a propagated error for the user. Presentational
	// only, it never changes statuses.
	Report func(error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Execute evaluates a command tree and returns its exit status.
// Errors that escape here are reported at the line boundary and map
// to status 1.
func (e *Executor) Execute(node shell.Node) (int, error) {
	switch n := node.(type) {
	case *shell.Simple:
		return e.execSimple(n.Argv, n.Background)
	case *shell.Pipe:
		out, err := e.Capture(n.Left)
		if err != nil {
			return 0, err
		}
		return e.runWithInput(n.Right, out)
	case *shell.RedirectOut:
		return e.execRedirectOut(n, nil)
	case *shell.RedirectIn:
		data, err := afero.ReadFile(e.Fs, n.File)
		if err != nil {
			return 0, &IOError{Err: fmt.Errorf("cannot open %s: %v", n.File, err)}
		}
		return e.runWithInput(n.Cmd, data)
	case *shell.Chain:
		return e.execChain(n, nil)
	default:
		return 0, fmt.Errorf("unsupported command node %T", node)
	}
}

// execSimple implements the dispatch order for a simple command:
// time prefix, alias table builtins, job control builtins, the
// dispatcher collaborator, then an external process.
func (e *Executor) execSimple(argv []string, background bool) (int, error) {
	if len(argv) == 0 {
		return 0, nil
	}

	if argv[0] == "time" {
		if len(argv) < 2 {
			fmt.Fprintln(e.Stderr, "time: missing command")
			return 1, nil
		}
		return e.timeCommand(argv[1:], background)
	}

	switch argv[0] {
	case "alias":
		return e.aliasBuiltin(argv), nil
	case "unalias":
		return e.unaliasBuiltin(argv), nil
	case "jobs":
		return e.jobsBuiltin(), nil
	case "fg":
		return e.fgBuiltin(argv), nil
	case "bg":
		// Stop/continue job control is not implemented.
		return 0, nil
	}

	res, err := e.tryDispatch(argv)
	if err != nil {
		return 0, err
	}
	switch res.Outcome {
	case Handled:
		return res.Status, nil
	case HandledWithOutput:
		_, _ = e.Stdout.Write(res.Output)
		return res.Status, nil
	}

	if background {
		return e.spawnBackground(argv)
	}

	status, err := e.runExternal(argv)
	if err != nil {
		e.report(err)
		return statusForError(err), nil
	}
	return status, nil
}

// spawnBackground starts the process with inherited streams,
// registers it, prints a notification and returns immediately.
func (e *Executor) spawnBackground(argv []string) (int, error) {
	cmd := e.command(argv, e.Stdin, e.Stdout, e.Stderr)
	if err := cmd.Start(); err != nil {
		return 0, spawnError(argv[0], err)
	}

	display := strings.Join(argv, " ")
	id := e.Jobs.Add(display, cmd)
	fmt.Fprintf(e.Stdout, "[%d] %s\n", id, display)
	return 0, nil
}

// runExternal runs a foreground external command with the shell's
// streams.
func (e *Executor) runExternal(argv []string) (int, error) {
	cmd := e.command(argv, e.Stdin, e.Stdout, e.Stderr)
	return runCmd(cmd, argv[0])
}

// Capture evaluates a node with its standard output buffered in
// memory and returns the buffer. A non-zero exit from any stage
// aborts the evaluation with an error carrying the failed status.
func (e *Executor) Capture(node shell.Node) ([]byte, error) {
	return e.captureWithInput(node, nil)
}

func (e *Executor) captureWithInput(node shell.Node, input []byte) ([]byte, error) {
	switch n := node.(type) {
	case *shell.Simple:
		res, err := e.tryDispatch(n.Argv)
		if err != nil {
			return nil, err
		}
		switch res.Outcome {
		case Handled:
			return nil, nil
		case HandledWithOutput:
			return res.Output, nil
		}

		var stdout bytes.Buffer
		cmd := e.command(n.Argv, inputReader(input), &stdout, e.Stderr)
		status, err := runCmd(cmd, n.Argv[0])
		if err != nil {
			return nil, err
		}
		if status != 0 {
			return nil, fmt.Errorf("command failed with status %d", status)
		}
		return stdout.Bytes(), nil

	case *shell.Pipe:
		left, err := e.captureWithInput(n.Left, input)
		if err != nil {
			return nil, err
		}
		return e.captureWithInput(n.Right, left)

	case *shell.RedirectOut:
		return e.captureWithInput(n.Cmd, input)

	case *shell.RedirectIn:
		return e.captureWithInput(n.Cmd, input)

	case *shell.Chain:
		return e.captureWithInput(n.Left, input)

	default:
		return nil, fmt.Errorf("unsupported command node %T", node)
	}
}

// runWithInput evaluates a node with the given buffer as its standard
// input, recursing through compound nodes the same way Capture does.
func (e *Executor) runWithInput(node shell.Node, input []byte) (int, error) {
	switch n := node.(type) {
	case *shell.Simple:
		res, err := e.tryDispatch(n.Argv)
		if err != nil {
			return 0, err
		}
		switch res.Outcome {
		case Handled:
			return res.Status, nil
		case HandledWithOutput:
			_, _ = e.Stdout.Write(res.Output)
			return res.Status, nil
		}

		cmd := e.command(n.Argv, inputReader(input), e.Stdout, e.Stderr)
		status, err := runCmd(cmd, n.Argv[0])
		if err != nil {
			e.report(err)
			return statusForError(err), nil
		}
		return status, nil

	case *shell.Pipe:
		left, err := e.captureWithInput(n.Left, input)
		if err != nil {
			return 0, err
		}
		return e.runWithInput(n.Right, left)

	case *shell.RedirectOut:
		return e.execRedirectOut(n, input)

	case *shell.RedirectIn:
		data, err := afero.ReadFile(e.Fs, n.File)
		if err != nil {
			return 0, &IOError{Err: fmt.Errorf("cannot open %s: %v", n.File, err)}
		}
		return e.runWithInput(n.Cmd, data)

	case *shell.Chain:
		return e.execChain(n, input)

	default:
		return 0, fmt.Errorf("unsupported command node %T", node)
	}
}

// execRedirectOut materializes the inner node's output and writes it
// to the target file. input is non-nil when the redirect itself sits
// downstream of a pipe or input redirect.
func (e *Executor) execRedirectOut(n *shell.RedirectOut, input []byte) (int, error) {
	out, err := e.captureWithInput(n.Cmd, input)
	if err != nil {
		return 0, err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if n.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	fd, err := e.Fs.OpenFile(n.File, flags, 0644)
	if err != nil {
		return 0, &IOError{Err: fmt.Errorf("cannot open %s: %v", n.File, err)}
	}
	defer fd.Close()

	if _, err := fd.Write(out); err != nil {
		return 0, &IOError{Err: fmt.Errorf("cannot write to %s: %v", n.File, err)}
	}
	return 0, nil
}

// execChain evaluates the left side, then the right side only when the
// operator's short-circuit condition allows it.
func (e *Executor) execChain(n *shell.Chain, input []byte) (int, error) {
	var left int
	var err error
	if input == nil {
		left, err = e.Execute(n.Left)
	} else {
		left, err = e.runWithInput(n.Left, input)
	}
	if err != nil {
		return 0, err
	}

	run := left != 0
	if n.And {
		run = left == 0
	}
	if !run {
		return left, nil
	}

	if input == nil {
		return e.Execute(n.Right)
	}
	return e.runWithInput(n.Right, input)
}

func (e *Executor) jobsBuiltin() int {
	e.Jobs.RemoveFinished()
	for _, j := range e.Jobs.Jobs() {
		fmt.Fprintf(e.Stdout, "[%d] %s %s\n", j.ID, j.StatusText(), j.Command)
	}
	return 0
}

func (e *Executor) fgBuiltin(argv []string) int {
	id := 1
	if len(argv) > 1 {
		if n, err := strconv.Atoi(argv[1]); err == nil {
			id = n
		}
	}

	if status, ok := e.Jobs.Foreground(id); ok {
		return status
	}
	fmt.Fprintf(e.Stderr, "fg: job %d not found\n", id)
	return 1
}

func (e *Executor) aliasBuiltin(argv []string) int {
	if len(argv) == 1 {
		for _, a := range e.Aliases.List() {
			fmt.Fprintf(e.Stdout, "alias %s='%s'\n", a.Name, a.Value)
		}
		return 0
	}

	def := strings.Join(argv[1:], " ")
	split := strings.SplitN(def, "=", 2)
	if len(split) != 2 {
		fmt.Fprintf(e.Stderr, "alias: invalid format: %s\n", def)
		return 1
	}

	name := strings.TrimSpace(split[0])
	value := strings.TrimSpace(split[1])
	// Strip one layer of matching quotes around the value.
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			value = value[1 : len(value)-1]
		}
	}

	e.Aliases.Set(name, value)
	return 0
}

func (e *Executor) unaliasBuiltin(argv []string) int {
	if len(argv) < 2 {
		fmt.Fprintln(e.Stderr, "unalias: missing alias name")
		return 1
	}

	status := 0
	for _, name := range argv[1:] {
		if !e.Aliases.Unset(name) {
			fmt.Fprintf(e.Stderr, "unalias: %s: not found\n", name)
			status = 1
		}
	}
	return status
}

func (e *Executor) tryDispatch(argv []string) (DispatchResult, error) {
	if e.Dispatch == nil {
		return DispatchResult{Outcome: NotHandled}, nil
	}
	return e.Dispatch.TryHandle(argv)
}

func (e *Executor) report(err error) {
	if e.Report != nil {
		e.Report(err)
		return
	}
	fmt.Fprintf(e.Stderr, "error: %v\n", err)
}

// command builds an exec.Cmd carrying the shell's environment context.
func (e *Executor) command(argv []string, stdin io.Reader, stdout, stderr io.Writer) *exec.Cmd {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = e.Env.Environ()
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd
}

func inputReader(input []byte) io.Reader {
	if input == nil {
		return nil
	}
	return bytes.NewReader(input)
}

// runCmd runs a command to completion. A non-zero child exit is a
// status, not an error; only spawn failures become errors.
func runCmd(cmd *exec.Cmd, program string) (int, error) {
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exit, ok := err.(*exec.ExitError); ok {
		return exit.ExitCode(), nil
	}
	return 0, spawnError(program, err)
}

func spawnError(program string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return &CommandNotFoundError{Program: program}
	}
	return &ExecError{Program: program, Message: err.Error()}
}

func statusForError(err error) int {
	var notFound *CommandNotFoundError
	if errors.As(err, &notFound) {
		return 127
	}
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return 126
	}
	return 1
}
