// Package registry implements LogLens's global, JSON-file-backed project
// catalog (C10), per spec.md §4.10/§6: a weak, path-keyed index over
// projects whose authoritative identity lives in each project's own
// on-disk .loglens/metadata.json.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

const (
	loglensDirName  = ".loglens"
	metadataRelPath = loglensDirName + "/metadata.json"
)

// Registry is the in-memory, mutex-guarded view of ~/.loglens/registry.json.
// It mirrors the teacher's map-keyed tool registry idiom, retargeted from a
// static built-in catalog to a mutable, persisted one.
type Registry struct {
	path string

	mu       sync.Mutex
	projects map[string]model.LinkedProject // project_id -> entry
}

// Open loads the registry from path, creating an empty one if the file
// does not yet exist.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, projects: map[string]model.LinkedProject{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to read registry file", err)
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.projects); err != nil {
		return nil, clierr.Wrap(clierr.KindDecodeError, "failed to parse registry file", err)
	}
	return r, nil
}

// save writes the registry to disk atomically (write to a temp file, then
// rename), so a crash mid-write never leaves a truncated registry.json.
func (r *Registry) save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to create registry directory", err)
	}
	data, err := json.MarshalIndent(r.projects, "", "  ")
	if err != nil {
		return clierr.Wrap(clierr.KindInternal, "failed to encode registry", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to write registry file", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return clierr.Wrap(clierr.KindStorage, "failed to finalize registry file", err)
	}
	return nil
}

// Get returns the registered entry for a project id.
func (r *Registry) Get(projectID string) (model.LinkedProject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	return p, ok
}

// FindByPath returns the entry whose root path matches path, if any.
func (r *Registry) FindByPath(path string) (model.LinkedProject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.RootPath == path {
			return p, true
		}
	}
	return model.LinkedProject{}, false
}

// List returns every registered entry, ordered by name.
func (r *Registry) List() []model.LinkedProject {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.LinkedProject, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sortLinkedProjects(out)
	return out
}

func sortLinkedProjects(ps []model.LinkedProject) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j].Name < ps[j-1].Name; j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

// register inserts or overwrites the entry for id and persists.
func (r *Registry) register(entry model.LinkedProject) error {
	r.mu.Lock()
	r.projects[entry.ProjectID] = entry
	r.mu.Unlock()
	return r.save()
}

// unregister removes the entry for id and persists.
func (r *Registry) unregister(projectID string) error {
	r.mu.Lock()
	delete(r.projects, projectID)
	r.mu.Unlock()
	return r.save()
}

func readMetadata(rootPath string) (*model.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(rootPath, metadataRelPath))
	if err != nil {
		return nil, err
	}
	var m model.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
