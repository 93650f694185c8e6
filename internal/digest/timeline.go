package digest

import (
	"sort"
	"strings"

	"github.com/loglens/loglens/internal/model"
)

// buildTimeline produces one TimelineEvent per significant entry,
// skipping INFO/DEBUG unless IncludeLowSeverity, de-duplicated by
// (timestamp, message-prefix-50), sorted by timestamp, and truncated to
// MaxTimelineEvents, per spec.md §4.7.
func buildTimeline(entries []model.LogEntry, cfg model.DigestConfig) []model.TimelineEvent {
	type key struct {
		ts     int64
		prefix string
	}
	seen := make(map[key]bool)
	var out []model.TimelineEvent

	for _, e := range entries {
		if !cfg.IncludeLowSeverity && (e.Level == model.LevelInfo || e.Level == model.LevelDebug || !e.HasLevel()) {
			continue
		}

		prefix := e.Message
		if len(prefix) > 50 {
			prefix = prefix[:50]
		}
		var ts int64
		if e.Timestamp != nil {
			ts = e.Timestamp.UnixNano()
		}
		k := key{ts: ts, prefix: prefix}
		if seen[k] {
			continue
		}
		seen[k] = true

		description := e.Message
		if len(description) > 100 {
			description = description[:100]
		}

		components := extractComponents(e.Message)
		component := ""
		if len(components) > 0 {
			component = components[0]
		}

		event := model.TimelineEvent{
			EventType:   e.LevelName,
			Description: description,
			Component:   component,
			Severity:    severityForLevel(e),
			Causality:   causalityForMessage(e.Message),
		}
		if e.Timestamp != nil {
			event.Timestamp = *e.Timestamp
		}
		out = append(out, event)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	if cfg.MaxTimelineEvents > 0 && len(out) > cfg.MaxTimelineEvents {
		out = out[:cfg.MaxTimelineEvents]
	}
	return out
}

// severityForLevel derives TimelineEvent.Severity per spec.md §4.7:
// FATAL->CRITICAL, ERROR->HIGH unless the message mentions
// "critical"/"fatal" (then CRITICAL), WARN->MEDIUM, else LOW.
func severityForLevel(e model.LogEntry) model.Severity {
	lower := strings.ToLower(e.Message)
	switch e.Level {
	case model.LevelFatal:
		return model.SeverityCritical
	case model.LevelError:
		if strings.Contains(lower, "critical") || strings.Contains(lower, "fatal") {
			return model.SeverityCritical
		}
		return model.SeverityHigh
	case model.LevelWarn:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// causalityForMessage classifies causality from keyword cues.
func causalityForMessage(message string) model.Causality {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "caused by") || strings.Contains(lower, "because") || strings.Contains(lower, "due to"):
		return model.CausalityCause
	case strings.Contains(lower, "resulting in") || strings.Contains(lower, "leading to") || strings.Contains(lower, "triggered"):
		return model.CausalityEffect
	case strings.Contains(lower, "symptom") || strings.Contains(lower, "observed") || strings.Contains(lower, "noticed"):
		return model.CausalitySymptom
	default:
		return model.CausalityNone
	}
}
