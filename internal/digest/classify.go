package digest

import "strings"

// classifyErrorType derives a coarse error_type bucket from a message,
// per spec.md §4.7: a fixed set of keyword-based buckets, falling back
// to the first three words truncated to 50 characters.
func classifyErrorType(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return "Timeout"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection failed") || strings.Contains(lower, "broken pipe"):
		return "ConnectionFailure"
	case strings.Contains(lower, "nullpointerexception") || strings.Contains(lower, "null pointer"):
		return "NullPointerException"
	case strings.Contains(lower, "sql") || strings.Contains(lower, "database") || strings.Contains(lower, "deadlock"):
		return "DatabaseError"
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "permission denied") || strings.Contains(lower, "forbidden"):
		return "AuthenticationError"
	case strings.Contains(lower, "out of memory") || strings.Contains(lower, "oom") || strings.Contains(lower, "memory leak"):
		return "MemoryError"
	default:
		return firstWords(message, 3, 50)
	}
}

func firstWords(message string, n, maxLen int) string {
	fields := strings.Fields(message)
	if len(fields) > n {
		fields = fields[:n]
	}
	s := strings.Join(fields, " ")
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

// extractComponents pulls probable component names from a message using
// simple bracket/service/controller patterns: "[component]", "component:
// ...", or a token ending in "Service"/"Controller"/"Handler".
func extractComponents(message string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	start := strings.IndexByte(message, '[')
	end := strings.IndexByte(message, ']')
	if start >= 0 && end > start {
		add(message[start+1 : end])
	}

	for _, field := range strings.Fields(message) {
		trimmed := strings.Trim(field, ".,:;()[]{}")
		if strings.HasSuffix(trimmed, "Service") || strings.HasSuffix(trimmed, "Controller") || strings.HasSuffix(trimmed, "Handler") {
			add(trimmed)
		}
	}

	return out
}
