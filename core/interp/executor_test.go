package interp

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slosh-shell/slosh/core/aliases"
	"github.com/slosh-shell/slosh/core/env"
	"github.com/slosh-shell/slosh/core/shell"
)

// recordingDispatcher handles a fixed set of fake builtins and records
// what it was asked to run.
type recordingDispatcher struct {
	calls [][]string
}

func (d *recordingDispatcher) TryHandle(argv []string) (DispatchResult, error) {
	d.calls = append(d.calls, argv)

	switch argv[0] {
	case "ok":
		return DispatchResult{Outcome: Handled}, nil
	case "fail":
		return DispatchResult{Outcome: Handled, Status: 1}, nil
	case "say":
		return DispatchResult{
			Outcome: HandledWithOutput,
			Output:  []byte("said: " + argv[1] + "\n"),
		}, nil
	}
	return DispatchResult{Outcome: NotHandled}, nil
}

type executorFixture struct {
	exec     *Executor
	dispatch *recordingDispatcher
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	reported []error
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	f := &executorFixture{
		dispatch: &recordingDispatcher{},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	}
	fs := afero.NewMemMapFs()
	f.exec = &Executor{
		Env:      env.New(),
		Fs:       fs,
		Jobs:     NewJobTable(),
		Aliases:  aliases.NewStore(fs, ""),
		Dispatch: f.dispatch,
		Report:   func(err error) { f.reported = append(f.reported, err) },
		Stdout:   f.stdout,
		Stderr:   f.stderr,
	}
	return f
}

func simple(argv ...string) *shell.Simple {
	return &shell.Simple{Argv: argv}
}

func TestExecuteExternal(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("echo", "hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello\n", f.stdout.String())
}

func TestExecuteDispatcherHandled(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("fail"))
	require.NoError(t, err)
	assert.Equal(t, 1, status)
	assert.Equal(t, [][]string{{"fail"}}, f.dispatch.calls)
}

func TestExecuteDispatcherOutput(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("say", "hi"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "said: hi\n", f.stdout.String())
}

func TestExecuteNotFound(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("definitely-not-a-command-xyz"))
	require.NoError(t, err)
	assert.Equal(t, 127, status)

	require.Len(t, f.reported, 1)
	var notFound *CommandNotFoundError
	require.ErrorAs(t, f.reported[0], &notFound)
	assert.Equal(t, "definitely-not-a-command-xyz", notFound.Program)
}

func TestExecutePipe(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Pipe{
		Left:  simple("echo", "hello"),
		Right: simple("cat"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello\n", f.stdout.String())
}

func TestExecutePipeDispatcherOutputFeedsExternal(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Pipe{
		Left:  simple("say", "pipeline"),
		Right: simple("cat"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "said: pipeline\n", f.stdout.String())
}

func TestExecutePipeFailingStageAborts(t *testing.T) {
	f := newExecutorFixture(t)

	_, err := f.exec.Execute(&shell.Pipe{
		Left:  simple("sh", "-c", "exit 3"),
		Right: simple("cat"),
	})
	assert.EqualError(t, err, "command failed with status 3")
}

func TestExecuteRedirectOut(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.RedirectOut{
		Cmd:  simple("echo", "written"),
		File: "/out.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, f.stdout.String(), "redirected output must not hit stdout")

	data, err := afero.ReadFile(f.exec.Fs, "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "written\n", string(data))
}

func TestExecuteRedirectAppend(t *testing.T) {
	f := newExecutorFixture(t)
	require.NoError(t, afero.WriteFile(f.exec.Fs, "/log", []byte("first\n"), 0644))

	_, err := f.exec.Execute(&shell.RedirectOut{
		Cmd:    simple("echo", "second"),
		File:   "/log",
		Append: true,
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(f.exec.Fs, "/log")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestExecuteRedirectTruncates(t *testing.T) {
	f := newExecutorFixture(t)
	require.NoError(t, afero.WriteFile(f.exec.Fs, "/out", []byte("old contents\n"), 0644))

	_, err := f.exec.Execute(&shell.RedirectOut{
		Cmd:  simple("echo", "new"),
		File: "/out",
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(f.exec.Fs, "/out")
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestExecuteRedirectIn(t *testing.T) {
	f := newExecutorFixture(t)
	require.NoError(t, afero.WriteFile(f.exec.Fs, "/in.txt", []byte("from file\n"), 0644))

	status, err := f.exec.Execute(&shell.RedirectIn{
		Cmd:  simple("cat"),
		File: "/in.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "from file\n", f.stdout.String())
}

func TestExecuteRedirectInMissingFile(t *testing.T) {
	f := newExecutorFixture(t)

	_, err := f.exec.Execute(&shell.RedirectIn{
		Cmd:  simple("cat"),
		File: "/nope.txt",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open /nope.txt")

	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestDispatcherFunc(t *testing.T) {
	f := newExecutorFixture(t)
	f.exec.Dispatch = DispatcherFunc(func(argv []string) (DispatchResult, error) {
		return DispatchResult{Outcome: Handled, Status: 7}, nil
	})

	status, err := f.exec.Execute(simple("anything"))
	require.NoError(t, err)
	assert.Equal(t, 7, status)
}

func TestExecuteChainAnd(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Chain{
		Left:  simple("ok"),
		Right: simple("say", "ran"),
		And:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "said: ran\n", f.stdout.String())
}

func TestExecuteChainAndShortCircuits(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Chain{
		Left:  simple("fail"),
		Right: simple("say", "ran"),
		And:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, status, "status of the left side propagates")
	assert.Equal(t, [][]string{{"fail"}}, f.dispatch.calls)
	assert.Empty(t, f.stdout.String())
}

func TestExecuteChainOr(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Chain{
		Left:  simple("fail"),
		Right: simple("say", "recovered"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "said: recovered\n", f.stdout.String())
}

func TestExecuteChainOrSkipsAfterSuccess(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Chain{
		Left:  simple("ok"),
		Right: simple("say", "skipped"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, f.stdout.String())
}

func TestExecuteBackground(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(&shell.Simple{
		Argv:       []string{"sleep", "0"},
		Background: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, status, "backgrounding returns immediately with success")
	assert.Equal(t, "[1] sleep 0\n", f.stdout.String())

	// fg waits for the job and returns its status.
	assert.Equal(t, 0, f.exec.fgBuiltin([]string{"fg", "1"}))
}

func TestFgUnknownJob(t *testing.T) {
	f := newExecutorFixture(t)

	assert.Equal(t, 1, f.exec.fgBuiltin([]string{"fg", "7"}))
	assert.Equal(t, "fg: job 7 not found\n", f.stderr.String())
}

func TestAliasBuiltin(t *testing.T) {
	f := newExecutorFixture(t)

	status, err := f.exec.Execute(simple("alias", "gs='git", "status'"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	value, ok := f.exec.Aliases.Get("gs")
	require.True(t, ok)
	assert.Equal(t, "git status", value)

	f.stdout.Reset()
	_, err = f.exec.Execute(simple("alias"))
	require.NoError(t, err)
	assert.Equal(t, "alias gs='git status'\n", f.stdout.String())
}

func TestUnaliasBuiltin(t *testing.T) {
	f := newExecutorFixture(t)
	f.exec.Aliases.Set("gs", "git status")

	status, err := f.exec.Execute(simple("unalias", "gs"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	_, ok := f.exec.Aliases.Get("gs")
	assert.False(t, ok)

	status, err = f.exec.Execute(simple("unalias", "gs"))
	require.NoError(t, err)
	assert.Equal(t, 1, status)
	assert.Equal(t, "unalias: gs: not found\n", f.stderr.String())
}

func TestCaptureDispatcherOutput(t *testing.T) {
	f := newExecutorFixture(t)

	out, err := f.exec.Capture(simple("say", "captured"))
	require.NoError(t, err)
	assert.Equal(t, "said: captured\n", string(out))
}

func TestCaptureChainTakesLeft(t *testing.T) {
	f := newExecutorFixture(t)

	out, err := f.exec.Capture(&shell.Chain{
		Left:  simple("say", "left"),
		Right: simple("say", "right"),
		And:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "said: left\n", string(out))
}
