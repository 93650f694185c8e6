package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/storage"
)

// ProjectStore is the subset of *storage.Store the registry needs to keep
// the shared database's projects table in sync with a link/unlink. Defined
// as an interface so registry tests can stub it without a real database.
type ProjectStore interface {
	UpsertProject(ctx context.Context, p model.Project) error
}

var _ ProjectStore = (*storage.Store)(nil)

// Init creates path/.loglens/metadata.json with a freshly generated
// project id, then links it exactly as Link would. Initializing a path
// that is already linked fails with Conflict.
func (r *Registry) Init(ctx context.Context, path, name string, projectType model.ProjectType, store ProjectStore) error {
	if _, ok := r.FindByPath(path); ok {
		return clierr.New(clierr.KindConflict, "a project is already linked at "+path)
	}

	loglensDir := filepath.Join(path, loglensDirName)
	if err := os.MkdirAll(loglensDir, 0o755); err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to create .loglens directory", err)
	}

	meta := model.Metadata{
		ProjectID:   uuid.NewString(),
		ProjectName: name,
		ProjectType: projectType,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return clierr.Wrap(clierr.KindInternal, "failed to encode project metadata", err)
	}
	if err := os.WriteFile(filepath.Join(loglensDir, "metadata.json"), data, 0o644); err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to write project metadata", err)
	}

	return r.Link(ctx, path, store)
}

// Link reads path/.loglens/metadata.json, registers the project in the
// JSON catalog, and (if store is non-nil) upserts its row in the shared
// database, per spec.md §4.10's link(path) contract.
//
// Re-linking a path already linked to the same id is a no-op. Linking a
// path whose metadata id is already linked elsewhere, or linking a path
// that is itself already linked to a different id, fails with Conflict.
func (r *Registry) Link(ctx context.Context, path string, store ProjectStore) error {
	meta, err := readMetadata(path)
	if err != nil {
		return clierr.Wrap(clierr.KindInvalidInput, "project not initialized: missing .loglens/metadata.json", err)
	}

	if existing, ok := r.FindByPath(path); ok {
		if existing.ProjectID == meta.ProjectID {
			return nil
		}
		return clierr.New(clierr.KindConflict, "path already linked to a different project: "+path)
	}
	if existing, ok := r.Get(meta.ProjectID); ok && existing.RootPath != path {
		return clierr.New(clierr.KindConflict, "project id already linked to a different path: "+existing.RootPath)
	}

	now := time.Now().UTC()
	entry := model.LinkedProject{
		ProjectID:    meta.ProjectID,
		Name:         meta.ProjectName,
		RootPath:     path,
		LoglensDir:   loglensDirName,
		LastAccessed: &now,
	}
	if err := r.register(entry); err != nil {
		return err
	}

	if store == nil {
		return nil
	}
	return store.UpsertProject(ctx, model.Project{
		ID:          meta.ProjectID,
		Name:        meta.ProjectName,
		RootPath:    path,
		ProjectType: meta.ProjectType,
	})
}

// Unlink removes the registry entry for path. It preserves all on-disk
// project data and the shared database's rows, per spec.md §4.10's
// unlink(path) contract.
func (r *Registry) Unlink(path string) error {
	entry, ok := r.FindByPath(path)
	if !ok {
		return clierr.New(clierr.KindNotFound, "no linked project at path: "+path)
	}
	return r.unregister(entry.ProjectID)
}
