package model

import "time"

// Severity is the overall severity bucket of an IncidentDigest.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Causality classifies a TimelineEvent's relationship to the incident.
type Causality string

const (
	CausalityCause   Causality = "cause"
	CausalityEffect  Causality = "effect"
	CausalitySymptom Causality = "symptom"
	CausalityNone    Causality = ""
)

// CriticalError is one de-duplicated cluster of ERROR-level entries.
type CriticalError struct {
	ErrorType           string    `json:"error_type"`
	Frequency           int       `json:"frequency"`
	FirstOccurrence     time.Time `json:"first_occurrence"`
	LastOccurrence      time.Time `json:"last_occurrence"`
	Message             string    `json:"message"`
	AffectedComponents  []string  `json:"affected_components,omitempty"`
}

// TimelineEvent is one significant, de-duplicated entry in the incident
// timeline. Within a digest, events are ordered by Timestamp ascending.
type TimelineEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	Component   string    `json:"component,omitempty"`
	Severity    Severity  `json:"severity"`
	Causality   Causality `json:"causality,omitempty"`
}

// StackTraceRecord is one de-duplicated stack trace found in the raw log.
type StackTraceRecord struct {
	FullText      string    `json:"full_text"`
	RootException string    `json:"root_exception"`
	KeyMethods    []string  `json:"key_methods,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	Frequency     int       `json:"frequency"`
}

// ContextSnippet is N lines of raw context surrounding an ERROR entry.
type ContextSnippet struct {
	SourceLine int      `json:"source_line"`
	Before     []string `json:"before"`
	Error      string   `json:"error"`
	After      []string `json:"after"`
}

// LogStats summarizes volume and coverage of the analyzed entries.
type LogStats struct {
	TotalEntries    int            `json:"total_entries"`
	FilteredEntries int            `json:"filtered_entries"`
	AnalyzedEntries int            `json:"analyzed_entries"`
	CountsByLevel   map[string]int `json:"counts_by_level"`
	UniqueComponents int           `json:"unique_components"`
	FirstTimestamp  *time.Time     `json:"first_timestamp,omitempty"`
	LastTimestamp   *time.Time     `json:"last_timestamp,omitempty"`
}

// IncidentDigest is the derived, persisted artifact produced by the digest
// builder (C7) from filtered entries, raw context lines, and the
// analyzer's AnalysisResponse.
type IncidentDigest struct {
	ID                  string           `json:"id"`
	Severity            Severity         `json:"severity"`
	RootCauseAnalysis   string           `json:"root_cause_analysis"`
	RecommendedActions  []string         `json:"recommended_actions"`
	InvestigationAreas  []string         `json:"investigation_areas"`
	CriticalErrors      []CriticalError  `json:"critical_errors"`
	Timeline            []TimelineEvent  `json:"timeline"`
	StackTraces         []StackTraceRecord `json:"stack_traces"`
	ContextSnippets     []ContextSnippet `json:"context_snippets"`
	LogStats            LogStats         `json:"log_stats"`
	ProcessingTimeMS    int64            `json:"processing_time_ms"`
}

// DigestConfig tunes the thresholds and caps used by the digest builder.
type DigestConfig struct {
	MinErrorFrequency   int
	MaxCriticalErrors   int
	MaxTimelineEvents   int
	MaxStackTraces      int
	MaxContextWindows   int
	ContextLines        int
	IncludeLowSeverity  bool
}

// DefaultDigestConfig returns the spec's default thresholds.
func DefaultDigestConfig() DigestConfig {
	return DigestConfig{
		MinErrorFrequency:  1,
		MaxCriticalErrors:  20,
		MaxTimelineEvents:  100,
		MaxStackTraces:     20,
		MaxContextWindows:  20,
		ContextLines:       3,
		IncludeLowSeverity: false,
	}
}
