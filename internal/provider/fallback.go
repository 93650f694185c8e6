package provider

import (
	"strings"
	"unicode"

	"github.com/loglens/loglens/internal/model"
)

// ParseFallback extracts a structured AnalysisResponse from a natural
// language reply, for vendors that ignore the structured-JSON request.
// Ported from the original provider's create_fallback_response: a
// keyword-cued line scan, never failing, always returning confidence 0.5
// and category UnknownRelated.
func ParseFallback(content string) *model.AnalysisResponse {
	lines := strings.Split(content, "\n")

	var sequenceParts []string
	var rootCauseDescription string
	var recommendations []string

	inSequence := false
	inRecommendations := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		switch {
		case containsAny(lower, "sequence", "analysis", "what happened"):
			inSequence = true
			inRecommendations = false
			continue
		case containsAny(lower, "recommend", "suggest", "should"):
			inRecommendations = true
			inSequence = false
			if trimmed != "" {
				recommendations = append(recommendations, trimmed)
			}
			continue
		case containsAny(lower, "root cause", "caused by", "issue is"):
			rootCauseDescription = trimmed
			inSequence = false
			inRecommendations = false
			continue
		}

		if inSequence && trimmed != "" {
			sequenceParts = append(sequenceParts, trimmed)
		}

		if inRecommendations && trimmed != "" && isBulletLine(trimmed) {
			rec := strings.TrimLeft(trimmed, "-*• \t")
			if rec != "" {
				recommendations = append(recommendations, rec)
			}
		}
	}

	sequenceOfEvents := strings.Join(sequenceParts, " ")
	if sequenceOfEvents == "" {
		sequenceOfEvents = "Analysis completed but response format was not structured JSON. The AI provided natural language analysis."
	}

	if rootCauseDescription == "" && content != "" {
		rootCauseDescription = truncateRunes(content, 200) + "..."
	}

	return &model.AnalysisResponse{
		SequenceOfEvents: sequenceOfEvents,
		RootCause: model.RootCause{
			Category:    model.CategoryUnknownRelated,
			Description: rootCauseDescription,
			Confidence:  0.5,
		},
		Recommendations: recommendations,
		Confidence:      0.5,
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func isBulletLine(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
		return true
	}
	r := []rune(line)
	return len(r) > 0 && unicode.IsDigit(r[0])
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
