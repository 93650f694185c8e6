package model

import "time"

// AnalysisStatus is the lifecycle state of an Analysis. Transitions are
// monotonic: Pending -> Running -> (Completed | Failed).
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// Analysis is one incident investigation run against a log file.
//
// Invariant: a Completed analysis has a non-nil CompletedAt and exactly one
// of Result / ErrorMessage set; a Failed analysis has a non-empty
// ErrorMessage.
type Analysis struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"project_id"`
	LogFileID    *string        `json:"log_file_id,omitempty"`
	LogFilePath  string         `json:"log_file_path"`
	AnalysisType string         `json:"analysis_type"` // "file", reserved for future stream-originated analyses
	Provider     string         `json:"provider"`
	LevelFilter  string         `json:"level_filter"`
	Status       AnalysisStatus `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Metadata     string         `json:"metadata,omitempty"` // resolved provider/model, chunk diagnostics (JSON)
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// AnalysisResult is the 1:1 persisted outcome of a completed Analysis.
type AnalysisResult struct {
	AnalysisID        string `json:"analysis_id"`
	Summary           string `json:"summary,omitempty"`
	FullReport        string `json:"full_report,omitempty"`
	PatternsDetected  string `json:"patterns_detected,omitempty"` // JSON array
	IssuesFound       int    `json:"issues_found"`
	Metadata          string `json:"metadata,omitempty"`
}

// Pattern is one named error cluster surfaced as a detected pattern.
type Pattern struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// IsTerminal reports whether the status is a terminal state.
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisCompleted || s == AnalysisFailed
}

// CanTransitionTo reports whether moving from s to next respects the
// monotonic Pending -> Running -> (Completed | Failed) ordering.
func (s AnalysisStatus) CanTransitionTo(next AnalysisStatus) bool {
	switch s {
	case AnalysisPending:
		return next == AnalysisRunning || next == AnalysisFailed
	case AnalysisRunning:
		return next == AnalysisCompleted || next == AnalysisFailed
	default:
		return false
	}
}
