package interp

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	timingDivider = color.New(color.Faint)
	timingHeader  = color.New(color.Bold)
	timingReal    = color.New(color.FgGreen, color.Bold)
	timingUser    = color.New(color.FgBlue, color.Bold)
	timingSys     = color.New(color.FgYellow, color.Bold)
	timingCPU     = color.New(color.FgMagenta, color.Bold)
)

// timeCommand re-enters simple-command dispatch with timing
// instrumentation. The report goes to the diagnostic stream after
// completion whether the command succeeded or not.
func (e *Executor) timeCommand(argv []string, background bool) (int, error) {
	start := time.Now()
	status, user, system, err := e.timedDispatch(argv, background)
	real := time.Since(start)

	e.printTimingReport(real, user, system)
	return status, err
}

// timedDispatch runs argv the same way execSimple would. Only a
// foreground external spawn yields user/system CPU accounting; the
// process state collected by the blocking wait provides it.
func (e *Executor) timedDispatch(argv []string, background bool) (status int, user, system time.Duration, err error) {
	if background || isExecutorBuiltin(argv[0]) {
		status, err = e.execSimple(argv, background)
		return status, 0, 0, err
	}

	res, err := e.tryDispatch(argv)
	if err != nil {
		return 0, 0, 0, err
	}
	switch res.Outcome {
	case Handled:
		return res.Status, 0, 0, nil
	case HandledWithOutput:
		_, _ = e.Stdout.Write(res.Output)
		return res.Status, 0, 0, nil
	}

	cmd := e.command(argv, e.Stdin, e.Stdout, e.Stderr)
	status, runErr := runCmd(cmd, argv[0])
	if runErr != nil {
		e.report(runErr)
		return statusForError(runErr), 0, 0, nil
	}

	if state := cmd.ProcessState; state != nil {
		user = state.UserTime()
		system = state.SystemTime()
	}
	return status, user, system, nil
}

func isExecutorBuiltin(name string) bool {
	switch name {
	case "time", "alias", "unalias", "jobs", "fg", "bg":
		return true
	}
	return false
}

func (e *Executor) printTimingReport(real, user, system time.Duration) {
	divider := timingDivider.Sprint(strings.Repeat("━", 40))

	fmt.Fprintf(e.Stderr, "\n%s\n", divider)
	fmt.Fprintf(e.Stderr, "%s\n", timingHeader.Sprint("  Timing Information"))
	fmt.Fprintf(e.Stderr, "%s\n", divider)
	fmt.Fprintf(e.Stderr, "  %s  %s\n", timingReal.Sprint("Real:"), formatInterval(real))

	if user > 0 || system > 0 {
		fmt.Fprintf(e.Stderr, "  %s  %s\n", timingUser.Sprint("User:"), formatInterval(user))
		fmt.Fprintf(e.Stderr, "  %s  %s\n", timingSys.Sprint("Sys: "), formatInterval(system))

		if cpu := user + system; cpu > 0 && real > 0 {
			percent := float64(cpu) / float64(real) * 100
			if percent > 100 {
				percent = 100
			}
			fmt.Fprintf(e.Stderr, "  %s  %.1f%%\n", timingCPU.Sprint("CPU: "), percent)
		}
	}
	fmt.Fprintf(e.Stderr, "%s\n", divider)
}

// formatInterval renders a duration in seconds, switching to higher
// precision for sub-second values.
func formatInterval(d time.Duration) string {
	secs := d.Seconds()
	switch {
	case secs < 0.001:
		return fmt.Sprintf("%.3fms", secs*1000)
	case secs < 1:
		return fmt.Sprintf("%.3fs", secs)
	default:
		return fmt.Sprintf("%.2fs", secs)
	}
}
