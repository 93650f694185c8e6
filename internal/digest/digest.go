// Package digest implements LogLens's incident digest builder (C7), per
// spec.md §4.7: it derives an IncidentDigest from filtered entries, raw
// context lines, and the analyzer's AnalysisResponse.
package digest

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/model"
)

// Build produces an IncidentDigest. allEntries is the full unfiltered
// parse, filtered is what survived C3/C4, rawLines is the decoded file
// for context-window lookups, and response is the analyzer's result.
func Build(allEntries, filtered []model.LogEntry, rawLines []string, response *model.AnalysisResponse, cfg model.DigestConfig) model.IncidentDigest {
	start := time.Now()

	criticalErrors := buildCriticalErrors(filtered, cfg)
	timeline := buildTimeline(filtered, cfg)
	stackTraces := buildDedupedStackTraces(rawLines, cfg)
	contextSnippets := buildContextSnippets(filtered, rawLines, cfg)
	stats := buildStats(allEntries, filtered, filtered)

	var rootCauseText string
	var prose string
	var recs []string
	if response != nil {
		rootCauseText = response.RootCause.Description
		prose = response.SequenceOfEvents
		recs = response.Recommendations
	}

	severity := overallSeverity(stats.CountsByLevel)

	return model.IncidentDigest{
		ID:                 uuid.NewString(),
		Severity:           severity,
		RootCauseAnalysis:  rootCauseText,
		RecommendedActions: buildRecommendations(recs, prose, criticalErrors),
		InvestigationAreas: buildInvestigationAreas(criticalErrors),
		CriticalErrors:     criticalErrors,
		Timeline:           timeline,
		StackTraces:        stackTraces,
		ContextSnippets:    contextSnippets,
		LogStats:           stats,
		ProcessingTimeMS:   time.Since(start).Milliseconds(),
	}
}

// buildDedupedStackTraces scans rawLines for stack trace blocks,
// deduplicates by (root_exception, key_methods) signature accumulating
// frequency, and truncates to MaxStackTraces.
func buildDedupedStackTraces(rawLines []string, cfg model.DigestConfig) []model.StackTraceRecord {
	raw := scanStackTraces(rawLines)

	byKey := make(map[string]*model.StackTraceRecord)
	order := make([]string, 0)
	for _, t := range raw {
		key := signature(t)
		if existing, ok := byKey[key]; ok {
			existing.Frequency++
			continue
		}
		rec := &model.StackTraceRecord{
			FullText:      t.fullText,
			RootException: t.rootException,
			KeyMethods:    t.keyMethods,
			Frequency:     1,
		}
		byKey[key] = rec
		order = append(order, key)
	}

	out := make([]model.StackTraceRecord, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })

	if cfg.MaxStackTraces > 0 && len(out) > cfg.MaxStackTraces {
		out = out[:cfg.MaxStackTraces]
	}
	return out
}
