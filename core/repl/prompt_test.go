package repl

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/slosh-shell/slosh/core/env"
)

func TestPromptCustomFormat(t *testing.T) {
	environ := env.New()
	environ.Setenv("USER", "gopher")

	assert.Equal(t, "gopher ❯ ", Prompt(environ, "%u %s ", 0))
	assert.Equal(t, "gopher [3]❯ ", Prompt(environ, "%u %s ", 3))
}

func TestPromptDefaultShowsStatus(t *testing.T) {
	color.NoColor = true
	environ := env.New()
	environ.Setenv("USER", "gopher")

	assert.Contains(t, Prompt(environ, "", 0), "❯")
	assert.Contains(t, Prompt(environ, "", 2), "[2]❯")
	assert.NotContains(t, Prompt(environ, "", 0), "[0]")
}

func TestPromptFallbackUser(t *testing.T) {
	assert.Contains(t, Prompt(env.New(), "%u|", 0), "slosh|")
}
