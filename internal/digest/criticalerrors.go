package digest

import (
	"sort"
	"time"

	"github.com/loglens/loglens/internal/model"
)

// buildCriticalErrors groups ERROR/FATAL entries by classifyErrorType,
// drops groups below MinErrorFrequency, sorts by frequency descending,
// and truncates to MaxCriticalErrors, per spec.md §4.7.
func buildCriticalErrors(entries []model.LogEntry, cfg model.DigestConfig) []model.CriticalError {
	type group struct {
		errorType  string
		first      time.Time
		last       time.Time
		message    string
		components map[string]bool
		count      int
	}

	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, e := range entries {
		if e.Level != model.LevelError && e.Level != model.LevelFatal {
			continue
		}
		errType := classifyErrorType(e.Message)
		g, ok := groups[errType]
		if !ok {
			g = &group{errorType: errType, message: e.Message, components: make(map[string]bool)}
			groups[errType] = g
			order = append(order, errType)
		}
		g.count++
		if e.Timestamp != nil {
			if g.first.IsZero() || e.Timestamp.Before(g.first) {
				g.first = *e.Timestamp
			}
			if e.Timestamp.After(g.last) {
				g.last = *e.Timestamp
			}
		}
		for _, c := range extractComponents(e.Message) {
			g.components[c] = true
		}
	}

	out := make([]model.CriticalError, 0, len(order))
	for _, errType := range order {
		g := groups[errType]
		if g.count < cfg.MinErrorFrequency {
			continue
		}
		components := make([]string, 0, len(g.components))
		for c := range g.components {
			components = append(components, c)
		}
		sort.Strings(components)
		out = append(out, model.CriticalError{
			ErrorType:          g.errorType,
			Frequency:          g.count,
			FirstOccurrence:    g.first,
			LastOccurrence:     g.last,
			Message:            g.message,
			AffectedComponents: components,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })

	if cfg.MaxCriticalErrors > 0 && len(out) > cfg.MaxCriticalErrors {
		out = out[:cfg.MaxCriticalErrors]
	}
	return out
}
