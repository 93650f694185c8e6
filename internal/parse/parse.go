// Package parse implements LogLens's line-to-LogEntry stage (C2): a single
// precompiled timestamp pattern and ordered level-keyword matching, per
// spec.md §4.2. Parsing never fails; malformed input becomes a LogEntry
// with no timestamp, no level, and the original line as message.
package parse

import (
	"regexp"
	"time"

	"github.com/loglens/loglens/internal/model"
)

// timestampPattern matches ISO-8601-ish timestamps with optional
// fractional seconds and timezone, e.g. "2024-01-20 10:00:00",
// "2024-01-20T10:00:00.123Z", "2024-01-20T10:00:00+02:00".
var timestampPattern = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)`,
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// levelPatterns are tried in severity order; the first match wins, so a
// line mentioning both "INFO" and "ERROR" classifies as ERROR only when
// ERROR is checked first, per spec.md §4.2.
var levelPatterns = []struct {
	level   model.Level
	pattern *regexp.Regexp
}{
	{model.LevelFatal, regexp.MustCompile(`(?i)\bFATAL\b`)},
	{model.LevelError, regexp.MustCompile(`(?i)\b(ERROR|ERR|CRITICAL)\b`)},
	{model.LevelWarn, regexp.MustCompile(`(?i)\b(WARN|WARNING)\b`)},
	{model.LevelInfo, regexp.MustCompile(`(?i)\b(INFO|INFORMATION)\b`)},
	{model.LevelDebug, regexp.MustCompile(`(?i)\b(DEBUG|DBG|TRACE)\b`)},
}

// Parse converts decoded lines into LogEntry records. Line numbers are
// 1-based and reflect position in the input slice.
func Parse(lines []string) []model.LogEntry {
	entries := make([]model.LogEntry, 0, len(lines))
	for i, line := range lines {
		entries = append(entries, ParseLine(line, i+1))
	}
	return entries
}

// ParseLine parses a single line into a LogEntry.
func ParseLine(line string, lineNumber int) model.LogEntry {
	entry := model.LogEntry{
		Message:    line,
		LineNumber: lineNumber,
	}

	if m := timestampPattern.FindString(line); m != "" {
		if ts, ok := parseTimestamp(m); ok {
			entry.Timestamp = &ts
		}
	}

	for _, lp := range levelPatterns {
		if lp.pattern.MatchString(line) {
			entry.Level = lp.level
			entry.LevelName = lp.level.String()
			break
		}
	}

	return entry
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
