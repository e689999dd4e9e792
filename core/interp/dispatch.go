package interp

// DispatchOutcome is the tri-state result of offering an argv to the
// builtin dispatcher.
type DispatchOutcome int

const (
	// NotHandled means the argv names no builtin and should be spawned
	// as an external process.
	NotHandled DispatchOutcome = iota
	// Handled means the builtin ran and wrote directly to the shell's
	// streams.
	Handled
	// HandledWithOutput means the builtin ran and its output was
	// captured, suitable for feeding a pipeline or redirect.
	HandledWithOutput
)

// DispatchResult carries the outcome, the builtin's exit status, and
// captured output when Outcome is HandledWithOutput.
type DispatchResult struct {
	Outcome DispatchOutcome
	Status  int
	Output  []byte
}

// Dispatcher is consulted for every simple command before spawning.
// The executor honors it uniformly in direct, piped, and redirected
// contexts.
type Dispatcher interface {
	TryHandle(argv []string) (DispatchResult, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(argv []string) (DispatchResult, error)

func (f DispatcherFunc) TryHandle(argv []string) (DispatchResult, error) {
	return f(argv)
}
