// Package config supplies storage paths and the shell's configuration
// file.
package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

const (
	appDirName        = "slosh"
	ConfigurationName = "config.yaml"
	AliasFileName     = "aliases"
	HistoryFileName   = "history"
	DirfreqFileName   = "dirfreq"
)

// Dir returns the shell's configuration directory, creating it if
// needed. An empty string means no writable directory is available
// and persistence should degrade to in-memory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	dir := filepath.Join(home, ".config", appDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return ""
	}
	return dir
}

func fileIn(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// AliasFile returns the alias storage path, or "" when unavailable.
func AliasFile() string { return fileIn(Dir(), AliasFileName) }

// HistoryFile returns the readline history path, or "" when unavailable.
func HistoryFile() string { return fileIn(Dir(), HistoryFileName) }

// DirfreqFile returns the directory-usage store path, or "" when
// unavailable.
func DirfreqFile() string { return fileIn(Dir(), DirfreqFileName) }

// File returns the configuration file path, or "" when unavailable.
func File() string { return fileIn(Dir(), ConfigurationName) }

// Config is the shell configuration.
type Config struct {
	// PromptFormat overrides the default prompt. Placeholders: %u
	// user, %h host, %d directory, %s status marker.
	PromptFormat string `json:"prompt_format"`

	// ShowTiming enables the per-command elapsed time line.
	// Defaults to on.
	ShowTiming *bool `json:"show_timing"`

	// TimingThresholdMs suppresses the timing line for commands
	// faster than this. Zero shows it always.
	TimingThresholdMs uint64 `json:"timing_threshold_ms"`

	// Autostart lines run through the interpreter before the first
	// prompt.
	Autostart []string `json:"autostart" validate:"dive,required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{TimingThresholdMs: 50}
}

// ShowTimingEnabled resolves the ShowTiming default.
func (c *Config) ShowTimingEnabled() bool {
	if c.ShowTiming == nil {
		return true
	}
	return *c.ShowTiming
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Load reads the configuration at path from fs. A missing file or an
// empty path yields the defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	out := Default()
	if path == "" {
		return out, nil
	}

	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}

	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
