package storage

import (
	"context"
	"database/sql"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// StoreAnalysisResult upserts the 1:1 analysis_results row for an
// analysis, per the original implementation's ON CONFLICT DO UPDATE.
func (s *Store) StoreAnalysisResult(ctx context.Context, r model.AnalysisResult) error {
	if r.PatternsDetected == "" {
		r.PatternsDetected = "[]"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (analysis_id, summary, full_report, patterns_detected, issues_found, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(analysis_id) DO UPDATE SET
			summary = excluded.summary,
			full_report = excluded.full_report,
			patterns_detected = excluded.patterns_detected,
			issues_found = excluded.issues_found,
			metadata = excluded.metadata`,
		r.AnalysisID, r.Summary, r.FullReport, r.PatternsDetected, r.IssuesFound, r.Metadata,
	)
	if err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to store analysis result", err)
	}
	return nil
}

// GetAnalysisResult retrieves the result row for an analysis, if any.
func (s *Store) GetAnalysisResult(ctx context.Context, analysisID string) (*model.AnalysisResult, error) {
	var r model.AnalysisResult
	var summary, fullReport, metadata sql.NullString
	var issuesFound sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT analysis_id, summary, full_report, patterns_detected, issues_found, metadata
		FROM analysis_results WHERE analysis_id = ?`, analysisID,
	).Scan(&r.AnalysisID, &summary, &fullReport, &r.PatternsDetected, &issuesFound, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to get analysis result", err)
	}
	r.Summary = summary.String
	r.FullReport = fullReport.String
	r.IssuesFound = int(issuesFound.Int64)
	r.Metadata = metadata.String
	return &r, nil
}
