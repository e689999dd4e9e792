package cmd

import (
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/slosh-shell/slosh/core/aliases"
	"github.com/slosh-shell/slosh/core/config"
	"github.com/slosh-shell/slosh/core/diagnostics"
	"github.com/slosh-shell/slosh/core/dirfreq"
	"github.com/slosh-shell/slosh/core/env"
	"github.com/slosh-shell/slosh/core/interp"
	"github.com/slosh-shell/slosh/core/repl"
)

var (
	cfgPath string
	oneShot string
)

// rootCmd starts an interactive shell when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "slosh",
	Short: "A small interactive shell",
	Long: `slosh is an interactive command shell with pipes, redirection,
command chaining, globbing, background jobs and persistent aliases.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		session := newSession(configuration)

		if oneShot != "" {
			session.RunLine(oneShot)
			os.Exit(session.LastStatus)
		}

		loop := &repl.Repl{
			Session:     session,
			Config:      configuration,
			HistoryPath: config.HistoryFile(),
		}
		return loop.Run()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.config/slosh/config.yaml)")
	rootCmd.Flags().StringVarP(&oneShot, "command", "c", "", "run one command line and exit")
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = config.File()
	}
	return config.Load(afero.NewOsFs(), path)
}

// newSession wires the interpreter against the real OS: process
// environment, OS filesystem, persisted aliases and directory counts.
func newSession(configuration *config.Config) *interp.Session {
	fs := afero.NewOsFs()
	environ := env.NewFromOS()

	builtins := &interp.Builtins{
		Env:     environ,
		Fs:      fs,
		Dirfreq: dirfreq.New(fs, config.DirfreqFile()),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	reporter := &diagnostics.Reporter{
		Stderr: os.Stderr,
		Env:    environ,
		Fs:     fs,
		Builtins: []string{
			"alias", "unalias", "cd", "ll", "freqs", "export", "unset",
			"jobs", "fg", "bg", "time", "help", "exit",
		},
	}

	executor := &interp.Executor{
		Env:      environ,
		Fs:       fs,
		Jobs:     interp.NewJobTable(),
		Aliases:  aliases.NewStore(fs, config.AliasFile()),
		Dispatch: builtins,
		Report:   reporter.Report,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}

	if config.Dir() == "" {
		log.Println("no writable config directory; aliases and history will not persist")
	}

	return &interp.Session{
		Exec:   executor,
		Config: configuration,
	}
}
