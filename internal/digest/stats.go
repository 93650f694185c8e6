package digest

import "github.com/loglens/loglens/internal/model"

// buildStats computes per-level totals, unique components, and the
// parsed timestamp range, per spec.md §4.7.
func buildStats(allEntries, filtered, analyzed []model.LogEntry) model.LogStats {
	stats := model.LogStats{
		TotalEntries:    len(allEntries),
		FilteredEntries: len(filtered),
		AnalyzedEntries: len(analyzed),
		CountsByLevel:   make(map[string]int),
	}

	components := make(map[string]bool)
	for _, e := range allEntries {
		if e.HasLevel() {
			stats.CountsByLevel[e.LevelName]++
		}
		for _, c := range extractComponents(e.Message) {
			components[c] = true
		}
		if e.Timestamp == nil {
			continue
		}
		if stats.FirstTimestamp == nil || e.Timestamp.Before(*stats.FirstTimestamp) {
			ts := *e.Timestamp
			stats.FirstTimestamp = &ts
		}
		if stats.LastTimestamp == nil || e.Timestamp.After(*stats.LastTimestamp) {
			ts := *e.Timestamp
			stats.LastTimestamp = &ts
		}
	}
	stats.UniqueComponents = len(components)
	return stats
}

// overallSeverity implements spec.md §4.7's severity scoring:
// FATAL present or ERROR>50 -> CRITICAL; ERROR>10 -> HIGH;
// ERROR>0 or WARN>20 -> MEDIUM; else LOW.
func overallSeverity(counts map[string]int) model.Severity {
	fatal := counts[model.LevelFatal.String()]
	errorCount := counts[model.LevelError.String()]
	warnCount := counts[model.LevelWarn.String()]

	switch {
	case fatal > 0 || errorCount > 50:
		return model.SeverityCritical
	case errorCount > 10:
		return model.SeverityHigh
	case errorCount > 0 || warnCount > 20:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
