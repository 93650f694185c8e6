package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// CreateStreamingSource inserts a new streaming_sources row.
func (s *Store) CreateStreamingSource(ctx context.Context, src model.StreamingSource) (string, error) {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if src.BufferSize == 0 {
		src.BufferSize = model.DefaultBufferSize
	}
	if src.BatchTimeout == 0 {
		src.BatchTimeout = model.DefaultBatchTimeout
	}
	if src.Status == "" {
		src.Status = model.SourceActive
	}
	parserConfig, err := json.Marshal(src.ParserConfig)
	if err != nil {
		return "", clierr.Wrap(clierr.KindInvalidInput, "failed to encode parser config", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO streaming_sources (id, project_id, name, source_type, config, parser_config,
			buffer_size, batch_timeout_seconds, restart_on_error, max_restarts, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.ProjectID, src.Name, string(src.SourceType), src.Config, string(parserConfig),
		src.BufferSize, int(src.BatchTimeout.Seconds()), boolToInt(src.RestartOnError), src.MaxRestarts,
		string(src.Status), now, now,
	)
	if err != nil {
		return "", clierr.Wrap(clierr.KindStorage, "failed to create streaming source", err)
	}
	return src.ID, nil
}

// GetStreamingSource retrieves a streaming source by id.
func (s *Store) GetStreamingSource(ctx context.Context, id string) (*model.StreamingSource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, source_type, config, parser_config, buffer_size,
		       batch_timeout_seconds, restart_on_error, max_restarts, status, created_at, updated_at
		FROM streaming_sources WHERE id = ?`, id)
	src, err := scanStreamingSource(row)
	if err == sql.ErrNoRows {
		return nil, clierr.New(clierr.KindNotFound, "streaming source not found: "+id)
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to get streaming source", err)
	}
	return src, nil
}

// ListStreamingSources lists streaming sources for a project.
func (s *Store) ListStreamingSources(ctx context.Context, projectID string) ([]model.StreamingSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, source_type, config, parser_config, buffer_size,
		       batch_timeout_seconds, restart_on_error, max_restarts, status, created_at, updated_at
		FROM streaming_sources WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to list streaming sources", err)
	}
	defer rows.Close()

	var out []model.StreamingSource
	for rows.Next() {
		src, err := scanStreamingSource(rows)
		if err != nil {
			return nil, clierr.Wrap(clierr.KindStorage, "failed to scan streaming source row", err)
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

// UpdateStreamingSourceStatus updates a streaming source's lifecycle status.
func (s *Store) UpdateStreamingSourceStatus(ctx context.Context, id string, status model.SourceStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE streaming_sources SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to update streaming source status", err)
	}
	return nil
}

// DeleteStreamingSource removes a streaming source row.
func (s *Store) DeleteStreamingSource(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM streaming_sources WHERE id = ?`, id)
	if err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to delete streaming source", err)
	}
	return nil
}

func scanStreamingSource(row rowScanner) (*model.StreamingSource, error) {
	var src model.StreamingSource
	var sourceType, status string
	var parserConfig sql.NullString
	var batchTimeoutSeconds, maxRestarts sql.NullInt64
	var restartOnError int

	err := row.Scan(&src.ID, &src.ProjectID, &src.Name, &sourceType, &src.Config, &parserConfig,
		&src.BufferSize, &batchTimeoutSeconds, &restartOnError, &maxRestarts, &status, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	src.SourceType = model.SourceType(sourceType)
	src.Status = model.SourceStatus(status)
	src.RestartOnError = restartOnError != 0
	src.MaxRestarts = int(maxRestarts.Int64)
	src.BatchTimeout = time.Duration(batchTimeoutSeconds.Int64) * time.Second
	if parserConfig.Valid && parserConfig.String != "" {
		if err := json.Unmarshal([]byte(parserConfig.String), &src.ParserConfig); err != nil {
			return nil, err
		}
	}
	return &src, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
