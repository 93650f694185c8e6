package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// CreateAnalysis inserts a new Pending analysis row. a.LogFileID is
// mandatory: it is what PendingAnalysesWithLogFile's tick() query uses to
// find claimable work, and every analysis today is file-originated
// (AnalysisType is always "file", model.Analysis).
func (s *Store) CreateAnalysis(ctx context.Context, a model.Analysis) (string, error) {
	if a.LogFileID == nil || *a.LogFileID == "" {
		return "", clierr.New(clierr.KindInvalidInput, "log_file_id is required to create an analysis")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.AnalysisPending
	}
	if a.AnalysisType == "" {
		a.AnalysisType = "file"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, project_id, log_file_id, log_file_path, analysis_type, provider, level_filter, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, nullableStringPtr(a.LogFileID), a.LogFilePath, a.AnalysisType, a.Provider, a.LevelFilter, string(a.Status), time.Now().UTC(),
	)
	if err != nil {
		return "", clierr.Wrap(clierr.KindStorage, "failed to create analysis", err)
	}
	return a.ID, nil
}

// TransitionStatus moves an analysis to next, enforcing the monotonic
// status ordering. The caller supplies result/errMsg for the terminal
// writes the scheduler makes (completed_at is stamped here); unused
// fields pass as zero values.
func (s *Store) TransitionStatus(ctx context.Context, id string, next model.AnalysisStatus, result, errMsg string) error {
	current, err := s.GetAnalysis(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(next) {
		return clierr.New(clierr.KindConflict, "invalid analysis status transition: "+string(current.Status)+" -> "+string(next))
	}

	now := time.Now().UTC()
	switch next {
	case model.AnalysisRunning:
		_, err = s.db.ExecContext(ctx, `UPDATE analyses SET status = ?, started_at = ? WHERE id = ?`, string(next), now, id)
	case model.AnalysisCompleted:
		_, err = s.db.ExecContext(ctx, `UPDATE analyses SET status = ?, completed_at = ?, result = ? WHERE id = ?`, string(next), now, result, id)
	case model.AnalysisFailed:
		_, err = s.db.ExecContext(ctx, `UPDATE analyses SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`, string(next), now, errMsg, id)
	default:
		_, err = s.db.ExecContext(ctx, `UPDATE analyses SET status = ? WHERE id = ?`, string(next), id)
	}
	if err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to transition analysis status", err)
	}
	return nil
}

// GetAnalysis retrieves an analysis by id.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, log_file_id, log_file_path, analysis_type, provider, level_filter, status,
		       error_message, metadata, created_at, started_at, completed_at
		FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, clierr.New(clierr.KindNotFound, "analysis not found: "+id)
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to get analysis", err)
	}
	return a, nil
}

// QueryAnalysesFilter narrows QueryAnalyses, mirroring the original
// implementation's optional project_id/status/since/limit filters.
type QueryAnalysesFilter struct {
	ProjectID string
	Status    model.AnalysisStatus
	Since     *time.Time
	Limit     int
}

// QueryAnalyses lists analyses matching filter, newest first.
func (s *Store) QueryAnalyses(ctx context.Context, filter QueryAnalysesFilter) ([]model.Analysis, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, project_id, log_file_id, log_file_path, analysis_type, provider, level_filter, status,
		error_message, metadata, created_at, started_at, completed_at
		FROM analyses WHERE 1=1`)
	var args []any

	if filter.ProjectID != "" {
		b.WriteString(" AND project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		b.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		b.WriteString(" AND created_at >= ?")
		args = append(args, *filter.Since)
	}
	b.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to query analyses", err)
	}
	defer rows.Close()

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, clierr.Wrap(clierr.KindStorage, "failed to scan analysis row", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// PendingAnalysesWithLogFile is the scheduler's fixed per-tick query:
// SELECT analyses WHERE status=Pending AND log_file_id IS NOT NULL.
func (s *Store) PendingAnalysesWithLogFile(ctx context.Context) ([]model.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, log_file_id, log_file_path, analysis_type, provider, level_filter, status,
		       error_message, metadata, created_at, started_at, completed_at
		FROM analyses WHERE status = ? AND log_file_id IS NOT NULL`, string(model.AnalysisPending))
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to query pending analyses", err)
	}
	defer rows.Close()

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, clierr.Wrap(clierr.KindStorage, "failed to scan analysis row", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ResetStaleRunning resets Running analyses whose started_at predates the
// cutoff back to Pending, implementing the crash-recovery sweep of
// SPEC_FULL.md §9(b).
func (s *Store) ResetStaleRunning(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE analyses SET status = ?, started_at = NULL
		WHERE status = ? AND started_at IS NOT NULL AND started_at < ?`,
		string(model.AnalysisPending), string(model.AnalysisRunning), cutoff,
	)
	if err != nil {
		return 0, clierr.Wrap(clierr.KindStorage, "failed to reset stale running analyses", err)
	}
	return res.RowsAffected()
}

func scanAnalysis(row rowScanner) (*model.Analysis, error) {
	var a model.Analysis
	var logFileID, errMsg, metadata sql.NullString
	var startedAt, completedAt sql.NullTime
	var status string

	err := row.Scan(&a.ID, &a.ProjectID, &logFileID, &a.LogFilePath, &a.AnalysisType, &a.Provider, &a.LevelFilter,
		&status, &errMsg, &metadata, &a.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	a.Status = model.AnalysisStatus(status)
	if logFileID.Valid {
		v := logFileID.String
		a.LogFileID = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		a.ErrorMessage = &v
	}
	a.Metadata = metadata.String
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}

func nullableStringPtr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
