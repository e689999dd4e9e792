package interp

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/pborman/getopt/v2"
	"github.com/spf13/afero"

	"github.com/slosh-shell/slosh/core/dirfreq"
	"github.com/slosh-shell/slosh/core/env"
)

var (
	listHeader = color.New(color.Bold, color.Underline)
	listDir    = color.New(color.FgBlue, color.Bold)
	listDim    = color.New(color.Faint)
)

// Builtins is the dispatcher consulted by the executor for every
// simple command.
type Builtins struct {
	Env     *env.Env
	Fs      afero.Fs
	Dirfreq *dirfreq.Store

	Stdout io.Writer
	Stderr io.Writer

	// Chdir and Exit are overridable for tests. They default to
	// os.Chdir and os.Exit.
	Chdir func(dir string) error
	Exit  func(code int)
}

var _ Dispatcher = (*Builtins)(nil)

// TryHandle runs argv if it names a builtin, returning NotHandled
// otherwise.
func (b *Builtins) TryHandle(argv []string) (DispatchResult, error) {
	if len(argv) == 0 {
		return DispatchResult{Outcome: Handled}, nil
	}

	switch argv[0] {
	case "export":
		return b.export(argv), nil
	case "unset":
		return b.unset(argv), nil
	case "cd":
		return b.cd(argv), nil
	case "ll":
		return b.ll(argv), nil
	case "freqs":
		return b.freqs(), nil
	case "help":
		return b.help(argv), nil
	case "exit":
		code := 0
		if len(argv) > 1 {
			if n, err := strconv.Atoi(argv[1]); err == nil {
				code = n
			}
		}
		b.exit(code)
		return DispatchResult{Outcome: Handled}, nil
	}

	return DispatchResult{Outcome: NotHandled}, nil
}

func (b *Builtins) export(argv []string) DispatchResult {
	if len(argv) == 1 {
		for _, entry := range b.Env.Environ() {
			fmt.Fprintln(b.Stdout, entry)
		}
		return DispatchResult{Outcome: Handled}
	}

	status := 0
	for _, pair := range argv[1:] {
		split := strings.SplitN(pair, "=", 2)
		if len(split) != 2 {
			fmt.Fprintf(b.Stderr, "export: invalid assignment: %s\n", pair)
			status = 1
			continue
		}
		b.Env.Setenv(split[0], split[1])
	}
	return DispatchResult{Outcome: Handled, Status: status}
}

func (b *Builtins) unset(argv []string) DispatchResult {
	opts := getopt.New()
	opts.Bool('f', "treat NAME as a function")
	opts.Bool('v', "treat NAME as a variable")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(argv, nil); err != nil || *helpOpt {
		if err != nil {
			fmt.Fprintln(b.Stderr, err)
		}
		fmt.Fprintln(b.Stderr, "usage: unset [-fv] [NAME...]")
		fmt.Fprintln(b.Stderr, "Unset environment variables.")
		return DispatchResult{Outcome: Handled, Status: 1}
	}

	names := opts.Args()
	if len(names) == 0 {
		fmt.Fprintln(b.Stderr, "unset: missing name")
		return DispatchResult{Outcome: Handled, Status: 1}
	}
	for _, name := range names {
		b.Env.Unsetenv(name)
	}
	return DispatchResult{Outcome: Handled}
}

func (b *Builtins) cd(argv []string) DispatchResult {
	target := b.Env.Getenv("HOME")
	if target == "" {
		target = "/"
	}
	if len(argv) > 1 {
		target = argv[1]
	}
	target = b.expandTilde(target)

	if err := b.chdir(target); err != nil {
		fmt.Fprintf(b.Stderr, "cd: %s: %v\n", target, err)
		return DispatchResult{Outcome: Handled, Status: 1}
	}

	if b.Dirfreq != nil {
		b.Dirfreq.Increment(target)
	}
	return DispatchResult{Outcome: Handled}
}

// ll is a long directory listing whose output is captured, so it
// composes with pipes and redirects like any other stage.
func (b *Builtins) ll(argv []string) DispatchResult {
	target := "."
	if len(argv) > 1 {
		target = b.expandTilde(argv[1])
	}

	infos, err := afero.ReadDir(b.Fs, target)
	if err != nil {
		fmt.Fprintf(b.Stderr, "ll: %s: %v\n", target, err)
		return DispatchResult{Outcome: Handled, Status: 1}
	}

	// Directories first, then case-insensitive by name.
	sort.SliceStable(infos, func(i, j int) bool {
		return strings.ToLower(infos[i].Name()) < strings.ToLower(infos[j].Name())
	})
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].IsDir() && !infos[j].IsDir()
	})

	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 2, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", listHeader.Sprint("T\tSize\tModified\tName"))

	for _, info := range infos {
		kind := "-"
		size := bytesToHuman(info.Size())
		name := info.Name()
		if info.IsDir() {
			kind = listDir.Sprint("d")
			size = "-"
			name = listDir.Sprint(name)
		} else if info.Mode()&os.ModeSymlink != 0 {
			kind = "l"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			kind,
			listDim.Sprint(size),
			listDim.Sprint(info.ModTime().Format("2006-01-02 15:04")),
			name)
	}
	tw.Flush()

	return DispatchResult{
		Outcome: HandledWithOutput,
		Output:  []byte(buf.String()),
	}
}

func (b *Builtins) freqs() DispatchResult {
	fmt.Fprintf(b.Stdout, "%s\n", listHeader.Sprint("   Count  Directory"))
	for _, entry := range b.Dirfreq.Entries() {
		fmt.Fprintf(b.Stdout, "%8d  %s\n", entry.Count, collapseHome(entry.Path, b.Env.Getenv("HOME")))
	}
	return DispatchResult{Outcome: Handled}
}

func (b *Builtins) help(argv []string) DispatchResult {
	if len(argv) == 1 {
		w := b.Stdout
		fmt.Fprintln(w, "Usage: help <command>")
		fmt.Fprintln(w, "Shows a short summary and --help output if available.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Built-in commands:")
		fmt.Fprintln(w, "  alias [name='value']  - Create or list aliases")
		fmt.Fprintln(w, "  unalias <name>        - Remove an alias")
		fmt.Fprintln(w, "  cd [dir]              - Change directory")
		fmt.Fprintln(w, "  ll [dir]              - List directory with details")
		fmt.Fprintln(w, "  freqs                 - Show directory frequency stats")
		fmt.Fprintln(w, "  export [var=value]    - Set environment variables")
		fmt.Fprintln(w, "  unset <var>           - Unset environment variable")
		fmt.Fprintln(w, "  jobs                  - List background jobs")
		fmt.Fprintln(w, "  fg [job]              - Bring job to foreground")
		fmt.Fprintln(w, "  bg [job]              - Resume background job")
		fmt.Fprintln(w, "  time <command>        - Time command execution")
		fmt.Fprintln(w, "  exit [code]           - Exit shell")
		return DispatchResult{Outcome: Handled}
	}

	// Fall back to the command's own help output.
	for _, flag := range []string{"--help", "-h"} {
		out, err := exec.Command(argv[1], flag).Output()
		if err == nil {
			_, _ = b.Stdout.Write(out)
			return DispatchResult{Outcome: Handled}
		}
	}
	fmt.Fprintf(b.Stderr, "help: no help available for %s\n", argv[1])
	return DispatchResult{Outcome: Handled, Status: 1}
}

func (b *Builtins) chdir(dir string) error {
	if b.Chdir != nil {
		return b.Chdir(dir)
	}
	return os.Chdir(dir)
}

func (b *Builtins) exit(code int) {
	if b.Exit != nil {
		b.Exit(code)
		return
	}
	os.Exit(code)
}

func (b *Builtins) expandTilde(input string) string {
	home := b.Env.Getenv("HOME")
	if home == "" {
		return input
	}
	if input == "~" {
		return home
	}
	if strings.HasPrefix(input, "~/") {
		return home + "/" + input[2:]
	}
	return input
}

func collapseHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+"/") {
		return "~" + path[len(home):]
	}
	return path
}

// bytesToHuman renders a size with a single metric suffix.
func bytesToHuman(bytes int64) string {
	for _, e := range []struct {
		unit  string
		power int64
	}{
		{"P", 1e15},
		{"T", 1e12},
		{"G", 1e9},
		{"M", 1e6},
		{"K", 1e3},
	} {
		quotient := bytes / e.power
		switch {
		case quotient == 0:
			continue
		case quotient > 10:
			return fmt.Sprintf("%d%s", quotient, e.unit)
		default:
			return fmt.Sprintf("%0.1f%s", float64(bytes)/float64(e.power), e.unit)
		}
	}

	return fmt.Sprintf("%d", bytes)
}
