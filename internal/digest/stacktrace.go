package digest

import (
	"strings"
)

// stackStartCues and stackContinuationPrefixes drive the stack-trace
// scanner of spec.md §4.7.
var stackStartCues = []string{
	"Exception in thread",
	"Caused by:",
	"Traceback",
	"RuntimeError:",
	"Error:",
	"panic:",
}

func isStackStart(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, cue := range stackStartCues {
		if strings.HasPrefix(trimmed, cue) {
			return true
		}
	}
	return false
}

func isStackContinuation(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	switch {
	case strings.HasPrefix(trimmed, "at "):
		return true
	case strings.HasPrefix(trimmed, "... "):
		return true
	case strings.HasPrefix(trimmed, "Caused by:"):
		return true
	case strings.HasPrefix(trimmed, `File "`):
		return true
	default:
		return false
	}
}

type rawStackTrace struct {
	fullText      string
	rootException string
	keyMethods    []string
}

// scanStackTraces scans rawLines for stack trace blocks: a start line
// followed by contiguous continuation lines.
func scanStackTraces(rawLines []string) []rawStackTrace {
	var traces []rawStackTrace

	i := 0
	for i < len(rawLines) {
		if !isStackStart(rawLines[i]) {
			i++
			continue
		}
		start := i
		lines := []string{rawLines[i]}
		j := i + 1
		for j < len(rawLines) && isStackContinuation(rawLines[j]) {
			lines = append(lines, rawLines[j])
			j++
		}

		traces = append(traces, rawStackTrace{
			fullText:      strings.Join(lines, "\n"),
			rootException: rawLines[start],
			keyMethods:    extractKeyMethods(lines),
		})
		i = j
	}
	return traces
}

// extractKeyMethods pulls up to 5 method names from "at METHOD(" lines.
func extractKeyMethods(lines []string) []string {
	var methods []string
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "at ") {
			continue
		}
		rest := strings.TrimPrefix(trimmed, "at ")
		if idx := strings.IndexByte(rest, '('); idx >= 0 {
			rest = rest[:idx]
		}
		rest = strings.TrimSpace(rest)
		if rest != "" {
			methods = append(methods, rest)
		}
		if len(methods) >= 5 {
			break
		}
	}
	return methods
}

// signature builds the dedup key for a stack trace: (root_exception,
// key_methods).
func signature(t rawStackTrace) string {
	return t.rootException + "|" + strings.Join(t.keyMethods, ",")
}
