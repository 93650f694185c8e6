package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// CreateLogFile inserts a new log_files row.
func (s *Store) CreateLogFile(ctx context.Context, f model.LogFile) (string, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO log_files (id, project_id, filename, size, upload_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.ProjectID, f.Filename, f.Size, f.UploadPath, time.Now().UTC(),
	)
	if err != nil {
		return "", clierr.Wrap(clierr.KindStorage, "failed to create log file", err)
	}
	return f.ID, nil
}

// GetLogFile retrieves a log file by id.
func (s *Store) GetLogFile(ctx context.Context, id string) (*model.LogFile, error) {
	var f model.LogFile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, filename, size, upload_path, created_at
		FROM log_files WHERE id = ?`, id,
	).Scan(&f.ID, &f.ProjectID, &f.Filename, &f.Size, &f.UploadPath, &f.CreatedAt)
	if err != nil {
		return nil, clierr.Wrap(clierr.KindNotFound, "log file not found: "+id, err)
	}
	return &f, nil
}
