// Package filter implements LogLens's level-threshold stage (C3), per
// spec.md §4.3.
package filter

import (
	"fmt"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// Filter retains entries whose level is >= min, using the ordering
// DEBUG < INFO < WARN < ERROR < FATAL. Entries without a detected level
// are retained iff min <= INFO.
func Filter(entries []model.LogEntry, min model.Level) ([]model.LogEntry, error) {
	if !validLevel(min) {
		return nil, clierr.New(clierr.KindInvalidInput, fmt.Sprintf("invalid level %q", min)).WithFix("use one of DEBUG, INFO, WARN, ERROR, FATAL")
	}

	kept := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if !e.HasLevel() {
			if min <= model.LevelInfo {
				kept = append(kept, e)
			}
			continue
		}
		if e.Level >= min {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// FilterByName is Filter taking the level as its spec.md string form,
// failing with InvalidLevel (surfaced as clierr.KindInvalidInput) on an
// unrecognized name.
func FilterByName(entries []model.LogEntry, levelName string) ([]model.LogEntry, error) {
	lvl, ok := model.ParseLevel(levelName)
	if !ok {
		return nil, clierr.New(clierr.KindInvalidInput, fmt.Sprintf("invalid level %q", levelName)).WithFix("use one of DEBUG, INFO, WARN, ERROR, FATAL")
	}
	return Filter(entries, lvl)
}

func validLevel(l model.Level) bool {
	switch l {
	case model.LevelDebug, model.LevelInfo, model.LevelWarn, model.LevelError, model.LevelFatal:
		return true
	default:
		return false
	}
}
