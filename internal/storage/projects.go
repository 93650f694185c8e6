package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// CreateProject inserts a new project row, generating an id if p.ID is
// empty.
func (s *Store) CreateProject(ctx context.Context, p model.Project) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, root_path, loglens_config, project_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullableString(p.Description), nullableString(p.RootPath), nullableString(p.Config), string(p.ProjectType), now, now,
	)
	if err != nil {
		return "", clierr.Wrap(clierr.KindStorage, "failed to create project", err)
	}
	return p.ID, nil
}

// UpsertProject inserts a project row or updates it if one with the same
// id already exists, per spec.md §4.10's link() upsert requirement.
func (s *Store) UpsertProject(ctx context.Context, p model.Project) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, root_path, loglens_config, project_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			root_path = excluded.root_path,
			loglens_config = excluded.loglens_config,
			project_type = excluded.project_type,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, nullableString(p.Description), nullableString(p.RootPath), nullableString(p.Config), string(p.ProjectType), now, now,
	)
	if err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to upsert project", err)
	}
	return nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, root_path, loglens_config, project_type, last_accessed, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, clierr.New(clierr.KindNotFound, "project not found: "+id)
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to get project", err)
	}
	return p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, root_path, loglens_config, project_type, last_accessed, created_at, updated_at
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to list projects", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, clierr.Wrap(clierr.KindStorage, "failed to scan project row", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	var description, rootPath, config sql.NullString
	var lastAccessed sql.NullTime
	var projectType string

	err := row.Scan(&p.ID, &p.Name, &description, &rootPath, &config, &projectType, &lastAccessed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.RootPath = rootPath.String
	p.Config = config.String
	p.ProjectType = model.ProjectType(projectType)
	if lastAccessed.Valid {
		p.LastAccessed = &lastAccessed.Time
	}
	return &p, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
