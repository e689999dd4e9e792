package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIncomplete(t *testing.T) {
	cases := map[string]struct {
		input string
		want  bool
	}{
		"complete command":           {"echo hello", false},
		"empty":                      {"", false},
		"unclosed single quote":      {"echo 'hello", true},
		"unclosed double quote":      {`echo "hello`, true},
		"balanced quotes":            {`echo "a" 'b'`, false},
		"quote inside other quotes":  {`echo "it's"`, false},
		"escaped double quote":       {`echo "a\"b`, true},
		"trailing backslash":         {`echo hello \`, true},
		"escaped space at end":       {"echo hello \\ ", false},
		"escaped backslash at end":   {`echo hello \\`, false},
		"trailing pipe":              {"ls |", true},
		"trailing pipe with spaces":  {"ls | \t", true},
		"trailing or is complete":    {"false ||", false},
		"pipe mid-line":              {"ls | wc", false},
		"backslash inside singles":   {`echo 'a\'`, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsIncomplete(tc.input))
		})
	}
}

func TestJoinContinuation(t *testing.T) {
	assert.Equal(t, "echo a b", joinContinuation(`echo a \`, "b"))
	assert.Equal(t, "echo 'a\nb'", joinContinuation("echo 'a", "b'"))
	assert.Equal(t, "ls |\nwc", joinContinuation("ls |", "wc"))
}
