package interp

import "fmt"

// CommandNotFoundError reports a program that could not be located.
// It maps to exit status 127.
type CommandNotFoundError struct {
	Program string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Program)
}

// ExecError reports a spawn failure other than not-found, e.g. a
// permission problem. It maps to exit status 126.
type ExecError struct {
	Program string
	Message string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Program, e.Message)
}

// IOError wraps a filesystem or pipe failure.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

// Everything else (parse errors, empty commands, malformed redirects,
// failed pipeline stages, expansion failures) is a plain error carrying
// only message text.
