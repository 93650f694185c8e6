package slim

import (
	"testing"

	"github.com/loglens/loglens/internal/model"
)

func msgEntries(levels []model.Level, msgs []string) []model.LogEntry {
	out := make([]model.LogEntry, len(msgs))
	for i, m := range msgs {
		out[i] = model.LogEntry{Level: levels[i], Message: m}
	}
	return out
}

func TestSelectMode(t *testing.T) {
	cases := []struct {
		count int
		want  Mode
	}{
		{0, ModeLight},
		{500, ModeLight},
		{501, ModeAggressive},
		{1000, ModeAggressive},
		{1001, ModeUltra},
	}
	for _, c := range cases {
		if got := SelectMode(c.count); got != c.want {
			t.Errorf("SelectMode(%d) = %v, want %v", c.count, got, c.want)
		}
	}
}

func TestSlimIsContractive(t *testing.T) {
	levels := make([]model.Level, 20)
	msgs := make([]string, 20)
	for i := range msgs {
		levels[i] = model.LevelInfo
		msgs[i] = "repeated line"
	}
	for _, mode := range []Mode{ModeLight, ModeAggressive, ModeUltra} {
		out := Slim(msgEntries(levels, msgs), mode)
		if len(out) > len(msgs) {
			t.Errorf("mode %v: output %d > input %d", mode, len(out), len(msgs))
		}
	}
}

func TestLightSlimCollapsesHighFrequencyRuns(t *testing.T) {
	levels := make([]model.Level, 10)
	msgs := make([]string, 10)
	for i := range msgs {
		levels[i] = model.LevelInfo
		msgs[i] = "heartbeat"
	}
	out := Slim(msgEntries(levels, msgs), ModeLight)
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1 collapsed entry", len(out))
	}
}

func TestLightSlimDedupesConsecutiveDuplicates(t *testing.T) {
	levels := []model.Level{model.LevelInfo, model.LevelInfo, model.LevelInfo}
	msgs := []string{"a", "a", "b"}
	out := Slim(msgEntries(levels, msgs), ModeLight)
	if len(out) != 2 {
		t.Fatalf("got %d entries, want 2", len(out))
	}
}

func TestUltraDropsLowSeverityWhenErrorPresent(t *testing.T) {
	entries := []model.LogEntry{
		{Level: model.LevelInfo, Message: "starting up"},
		{Level: model.LevelError, Message: "boom"},
		{Level: model.LevelDebug, Message: "trace detail"},
	}
	out := Slim(entries, ModeUltra)
	for _, e := range out {
		if e.Level == model.LevelInfo || e.Level == model.LevelDebug {
			t.Errorf("ultra mode kept low-severity entry %q alongside an error", e.Message)
		}
	}
	found := false
	for _, e := range out {
		if e.Level == model.LevelError {
			found = true
		}
	}
	if !found {
		t.Error("ultra mode dropped the ERROR entry")
	}
}

func TestClusterSlimKeepsFirstAndLast(t *testing.T) {
	levels := make([]model.Level, 10)
	msgs := make([]string, 10)
	for i := range msgs {
		levels[i] = model.LevelWarn
		msgs[i] = "retrying request 1"
	}
	msgs[0] = "retrying request 1 start"
	msgs[9] = "retrying request 1 end"
	out := Slim(msgEntries(levels, msgs), ModeAggressive)
	if out[0].Message != msgs[0] {
		t.Errorf("first kept = %q, want %q", out[0].Message, msgs[0])
	}
	if out[len(out)-1].Message != msgs[9] {
		t.Errorf("last kept = %q, want %q", out[len(out)-1].Message, msgs[9])
	}
}
