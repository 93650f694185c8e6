package filter

import (
	"testing"

	"github.com/loglens/loglens/internal/model"
)

func entries() []model.LogEntry {
	return []model.LogEntry{
		{Level: model.LevelError, LevelName: "ERROR", Message: "e"},
		{Level: model.LevelWarn, LevelName: "WARN", Message: "w"},
		{Level: model.LevelInfo, LevelName: "INFO", Message: "i"},
	}
}

func TestFilterByNameWarn(t *testing.T) {
	got, err := FilterByName(entries(), "WARN")
	if err != nil {
		t.Fatalf("FilterByName: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestFilterByNameDebugKeepsAll(t *testing.T) {
	got, err := FilterByName(entries(), "DEBUG")
	if err != nil {
		t.Fatalf("FilterByName: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestFilterByNameInvalidLevel(t *testing.T) {
	_, err := FilterByName(entries(), "BOGUS")
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestFilterRetainsUnleveledBelowInfo(t *testing.T) {
	input := []model.LogEntry{{Message: "no level here"}}
	got, err := Filter(input, model.LevelInfo)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1 (unleveled entries retained at INFO threshold)", len(got))
	}

	got, err = Filter(input, model.LevelWarn)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0 (unleveled entries dropped above INFO threshold)", len(got))
	}
}
