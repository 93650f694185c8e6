package parse

import (
	"testing"

	"github.com/loglens/loglens/internal/model"
)

func TestParseLineExtractsTimestampAndLevel(t *testing.T) {
	entry := ParseLine("2024-01-20T10:00:00Z ERROR connection refused", 1)
	if entry.Timestamp == nil {
		t.Fatal("Timestamp = nil, want non-nil")
	}
	if entry.Level != model.LevelError {
		t.Errorf("Level = %v, want Error", entry.Level)
	}
	if entry.Message != "2024-01-20T10:00:00Z ERROR connection refused" {
		t.Errorf("Message changed: %q", entry.Message)
	}
}

func TestParseLineNeverFails(t *testing.T) {
	entry := ParseLine("not a log line at all {}[]", 7)
	if entry.Timestamp != nil {
		t.Errorf("Timestamp = %v, want nil", entry.Timestamp)
	}
	if entry.HasLevel() {
		t.Errorf("HasLevel() = true, want false")
	}
	if entry.Message != "not a log line at all {}[]" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.LineNumber != 7 {
		t.Errorf("LineNumber = %d, want 7", entry.LineNumber)
	}
}

func TestParseLineSeverityPrecedence(t *testing.T) {
	entry := ParseLine("INFO fallback triggered after ERROR from upstream", 1)
	if entry.Level != model.LevelError {
		t.Errorf("Level = %v, want Error (higher severity wins)", entry.Level)
	}
}

func TestParseLineSpaceSeparatedTimestamp(t *testing.T) {
	entry := ParseLine("2024-01-20 10:00:00.123 WARN disk usage high", 1)
	if entry.Timestamp == nil {
		t.Fatal("Timestamp = nil, want non-nil")
	}
	if entry.Level != model.LevelWarn {
		t.Errorf("Level = %v, want Warn", entry.Level)
	}
}

func TestParse(t *testing.T) {
	lines := []string{
		"2024-01-20T10:00:00Z INFO starting up",
		"plain line",
		"2024-01-20T10:00:01Z FATAL out of memory",
	}
	entries := Parse(lines)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Level != model.LevelInfo {
		t.Errorf("entries[0].Level = %v, want Info", entries[0].Level)
	}
	if entries[1].HasLevel() {
		t.Errorf("entries[1].HasLevel() = true, want false")
	}
	if entries[2].Level != model.LevelFatal {
		t.Errorf("entries[2].Level = %v, want Fatal", entries[2].Level)
	}
	if entries[2].LineNumber != 3 {
		t.Errorf("entries[2].LineNumber = %d, want 3", entries[2].LineNumber)
	}
}
