package repl

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/slosh-shell/slosh/core/env"
)

var (
	promptUser  = color.New(color.FgGreen, color.Bold)
	promptHost  = color.New(color.FgGreen)
	promptDir   = color.New(color.FgBlue, color.Bold)
	promptOK    = color.New(color.FgGreen, color.Bold)
	promptFail  = color.New(color.FgRed, color.Bold)
	promptFaint = color.New(color.Faint)
)

// Prompt renders the primary prompt string for the next read.
// An empty format yields the default colored prompt.
func Prompt(environ env.Getter, format string, lastStatus int) string {
	user := environ.Getenv("USER")
	if user == "" {
		user = "slosh"
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	dir := workingDir(environ)

	if format != "" {
		marker := "❯"
		if lastStatus != 0 {
			marker = fmt.Sprintf("[%d]❯", lastStatus)
		}
		replacer := strings.NewReplacer(
			"%u", user,
			"%h", host,
			"%d", dir,
			"%s", marker,
		)
		return replacer.Replace(format)
	}

	arrow := promptOK.Sprint("❯")
	if lastStatus != 0 {
		arrow = promptFail.Sprintf("[%d]❯", lastStatus)
	}
	return fmt.Sprintf("%s%s%s %s %s ",
		promptUser.Sprint(user),
		promptFaint.Sprint("@"),
		promptHost.Sprint(host),
		promptDir.Sprint(dir),
		arrow)
}

// continuationPrompt is shown while a multi-line command accumulates.
func continuationPrompt() string {
	return promptFaint.Sprint("... ")
}

// workingDir returns the current directory with $HOME collapsed to ~.
func workingDir(environ env.Getter) string {
	wd, err := os.Getwd()
	if err != nil {
		return "?"
	}

	home := environ.Getenv("HOME")
	if home != "" {
		if wd == home {
			return "~"
		}
		if strings.HasPrefix(wd, home+"/") {
			return "~" + wd[len(home):]
		}
	}
	return wd
}
