package scheduler

import (
	"encoding/json"

	"github.com/loglens/loglens/internal/model"
)

// encodePatterns renders a digest's critical errors as the JSON array of
// {name, count} patterns analysis_results.patterns_detected stores.
func encodePatterns(criticalErrors []model.CriticalError) (string, error) {
	patterns := make([]model.Pattern, 0, len(criticalErrors))
	for _, ce := range criticalErrors {
		patterns = append(patterns, model.Pattern{Name: ce.ErrorType, Count: ce.Frequency})
	}
	data, err := json.Marshal(patterns)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
