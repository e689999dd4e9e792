package repl

import "strings"

// IsIncomplete reports whether the accumulated input needs another
// line before it can be evaluated: an unclosed quote, a trailing
// backslash, or a trailing pipe.
func IsIncomplete(input string) bool {
	var inSingle, inDouble bool
	escaped := false

	for _, ch := range input {
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if !inSingle {
				escaped = true
			}
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		}
	}
	if inSingle || inDouble {
		return true
	}
	// A backslash with nothing left to escape continues on the next line.
	if escaped {
		return true
	}

	trimmed := strings.TrimRight(input, " \t")
	if strings.HasSuffix(trimmed, "|") && !strings.HasSuffix(trimmed, "||") {
		return true
	}
	return false
}

// joinContinuation merges an accumulated buffer with its next line.
// A backslash continuation splices the lines together; everything
// else keeps the newline so quoted strings preserve it.
func joinContinuation(buffer, line string) string {
	trimmed := strings.TrimRight(buffer, " \t")
	if strings.HasSuffix(trimmed, "\\") && !strings.HasSuffix(trimmed, "\\\\") {
		return trimmed[:len(trimmed)-1] + line
	}
	return buffer + "\n" + line
}
