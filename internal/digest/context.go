package digest

import (
	"strings"

	"github.com/loglens/loglens/internal/model"
)

// buildContextSnippets locates each ERROR entry's source line in
// rawLines by substring match and captures ContextLines before/after,
// capped at MaxContextWindows and skipping already-processed source
// lines, per spec.md §4.7.
func buildContextSnippets(entries []model.LogEntry, rawLines []string, cfg model.DigestConfig) []model.ContextSnippet {
	var out []model.ContextSnippet
	processed := make(map[int]bool)

	for _, e := range entries {
		if cfg.MaxContextWindows > 0 && len(out) >= cfg.MaxContextWindows {
			break
		}
		if e.Level != model.LevelError && e.Level != model.LevelFatal {
			continue
		}

		idx := findSourceLine(rawLines, e.Message)
		if idx < 0 || processed[idx] {
			continue
		}
		processed[idx] = true

		beforeStart := idx - cfg.ContextLines
		if beforeStart < 0 {
			beforeStart = 0
		}
		afterEnd := idx + cfg.ContextLines + 1
		if afterEnd > len(rawLines) {
			afterEnd = len(rawLines)
		}

		out = append(out, model.ContextSnippet{
			SourceLine: idx,
			Before:     append([]string{}, rawLines[beforeStart:idx]...),
			Error:      rawLines[idx],
			After:      append([]string{}, rawLines[idx+1:afterEnd]...),
		})
	}

	return out
}

func findSourceLine(rawLines []string, message string) int {
	for i, line := range rawLines {
		if strings.Contains(line, message) {
			return i
		}
	}
	return -1
}
