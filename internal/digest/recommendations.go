package digest

import (
	"strings"

	"github.com/loglens/loglens/internal/model"
)

const maxRecommendations = 5
const maxInvestigationAreas = 5

// recommendationCues are prose fragments that mark a sentence as an
// implicit recommendation when scanning a provider's free-form prose.
var recommendationCues = []string{"should", "recommend", "suggest", "consider"}

// genericRecommendations are keyed on keywords found anywhere in the
// digest's critical errors, following the teacher recommendations
// package's rule-per-condition style.
var genericRecommendations = []struct {
	keyword string
	text    string
}{
	{"database", "Review database connection pooling and query timeouts."},
	{"timeout", "Increase timeout budgets or add retry/backoff around the slow dependency."},
	{"memory", "Investigate memory usage and consider raising resource limits."},
	{"authentication", "Audit authentication configuration and credential rotation."},
	{"connection", "Check network reachability and connection pool exhaustion."},
}

// buildRecommendations starts from the analyzer response's
// recommendations, augments with prose cues, adds generic suggestions
// keyed on critical-error keywords, and caps at maxRecommendations.
func buildRecommendations(responseRecs []string, prose string, criticalErrors []model.CriticalError) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return false
		}
		seen[s] = true
		out = append(out, s)
		return len(out) >= maxRecommendations
	}

	for _, r := range responseRecs {
		if add(r) {
			return out
		}
	}

	for _, line := range strings.Split(prose, ".") {
		lower := strings.ToLower(line)
		for _, cue := range recommendationCues {
			if strings.Contains(lower, cue) {
				if add(strings.TrimSpace(line)) {
					return out
				}
				break
			}
		}
	}

	errorKeywords := strings.ToLower(concatErrorText(criticalErrors))
	for _, g := range genericRecommendations {
		if strings.Contains(errorKeywords, g.keyword) {
			if add(g.text) {
				return out
			}
		}
	}

	return out
}

// buildInvestigationAreas derives areas to investigate from affected
// components plus generic items, capped at maxInvestigationAreas.
func buildInvestigationAreas(criticalErrors []model.CriticalError) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) bool {
		if s == "" || seen[s] {
			return false
		}
		seen[s] = true
		out = append(out, s)
		return len(out) >= maxInvestigationAreas
	}

	for _, ce := range criticalErrors {
		for _, c := range ce.AffectedComponents {
			if add(c) {
				return out
			}
		}
	}

	for _, ce := range criticalErrors {
		if add(ce.ErrorType) {
			return out
		}
	}

	return out
}

func concatErrorText(criticalErrors []model.CriticalError) string {
	var b strings.Builder
	for _, ce := range criticalErrors {
		b.WriteString(ce.ErrorType)
		b.WriteString(" ")
		b.WriteString(ce.Message)
		b.WriteString(" ")
	}
	return b.String()
}
