// Package slim implements LogLens's volume-reduction stage (C4), per
// spec.md §4.4. Slimming is always contractive: output length never
// exceeds input length.
package slim

import (
	"strings"

	"github.com/loglens/loglens/internal/model"
)

// Mode selects a slimming strategy.
type Mode string

const (
	ModeLight      Mode = "light"
	ModeAggressive Mode = "aggressive"
	ModeUltra      Mode = "ultra"
)

// lightVolumeThreshold and aggressiveVolumeThreshold pick a mode from
// entry count, per spec.md §4.4: <=500 -> Light, <=1000 -> Aggressive,
// else Ultra.
const (
	lightVolumeThreshold      = 500
	aggressiveVolumeThreshold = 1000
)

// SelectMode picks the slimming mode for a given input volume.
func SelectMode(count int) Mode {
	switch {
	case count <= lightVolumeThreshold:
		return ModeLight
	case count <= aggressiveVolumeThreshold:
		return ModeAggressive
	default:
		return ModeUltra
	}
}

// maxPerCluster bounds how many example entries Aggressive/Ultra keep per
// message-shape cluster, beyond the mandatory first/last occurrences.
const maxPerCluster = 3

// highFrequencyThreshold is the run length from which Light appends a
// "repeated N times" suffix to the one entry it keeps for a run of
// consecutive identical lines; shorter runs are collapsed without it.
const highFrequencyThreshold = 5

// Slim reduces entries according to mode. It never adds entries.
func Slim(entries []model.LogEntry, mode Mode) []model.LogEntry {
	switch mode {
	case ModeAggressive:
		return clusterSlim(entries, false)
	case ModeUltra:
		reduced := clusterSlim(entries, true)
		return reduced
	default:
		return lightSlim(entries)
	}
}

// lightSlim dedupes exact-duplicate consecutive lines and collapses
// very high-frequency runs into a single representative entry annotated
// with its repeat count.
func lightSlim(entries []model.LogEntry) []model.LogEntry {
	if len(entries) == 0 {
		return entries
	}
	out := make([]model.LogEntry, 0, len(entries))
	i := 0
	for i < len(entries) {
		j := i + 1
		for j < len(entries) && entries[j].Message == entries[i].Message {
			j++
		}
		runLen := j - i
		rep := entries[i]
		if runLen >= highFrequencyThreshold {
			rep.Message = rep.Message + repeatSuffix(runLen)
		}
		out = append(out, rep)
		i = j
	}
	return out
}

func repeatSuffix(n int) string {
	return " [repeated " + itoa(n) + " times]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := make([]byte, 0, 8)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// clusterSlim groups entries by message shape and keeps up to
// maxPerCluster examples per cluster, always preserving the first and
// last occurrence. When ultra is true, INFO/DEBUG entries are dropped
// whenever an ERROR or WARN entry is present in the input.
func clusterSlim(entries []model.LogEntry, ultra bool) []model.LogEntry {
	if len(entries) == 0 {
		return entries
	}

	dropLowSeverity := false
	if ultra {
		for _, e := range entries {
			if e.Level == model.LevelError || e.Level == model.LevelWarn || e.Level == model.LevelFatal {
				dropLowSeverity = true
				break
			}
		}
	}

	type cluster struct {
		indices []int
	}
	clusters := make(map[string]*cluster)
	order := make([]string, 0)

	for i, e := range entries {
		if dropLowSeverity && (e.Level == model.LevelInfo || e.Level == model.LevelDebug) {
			continue
		}
		shape := messageShape(e.Message)
		c, ok := clusters[shape]
		if !ok {
			c = &cluster{}
			clusters[shape] = c
			order = append(order, shape)
		}
		c.indices = append(c.indices, i)
	}

	keep := make(map[int]bool)
	for _, shape := range order {
		c := clusters[shape]
		n := len(c.indices)
		if n <= maxPerCluster {
			for _, idx := range c.indices {
				keep[idx] = true
			}
			continue
		}
		keep[c.indices[0]] = true
		keep[c.indices[n-1]] = true
		budget := maxPerCluster - 2
		for k := 1; k < n-1 && budget > 0; k++ {
			keep[c.indices[k]] = true
			budget--
		}
	}

	out := make([]model.LogEntry, 0, len(keep))
	for i, e := range entries {
		if keep[i] {
			out = append(out, e)
		}
	}
	return out
}

// messageShape normalizes a message into a rough shape key by replacing
// runs of digits and hex-looking tokens, so near-identical messages that
// differ only in embedded numbers or ids cluster together.
func messageShape(msg string) string {
	var b strings.Builder
	inDigits := false
	for _, r := range msg {
		switch {
		case r >= '0' && r <= '9':
			if !inDigits {
				b.WriteByte('#')
				inDigits = true
			}
		default:
			inDigits = false
			b.WriteRune(r)
		}
	}
	shape := b.String()
	if len(shape) > 80 {
		shape = shape[:80]
	}
	return shape
}
