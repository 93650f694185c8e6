package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RootPath    string `json:"root_path"`
	ProjectType string `json:"project_type,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindInvalidInput, "invalid request body", err))
		return
	}
	if req.Name == "" || req.RootPath == "" {
		writeError(w, r, clierr.New(clierr.KindInvalidInput, "name and root_path are required"))
		return
	}
	projectType := model.ProjectType(req.ProjectType)
	if projectType == "" {
		projectType = model.ProjectTypeUnknown
	}

	id, err := s.store.CreateProject(r.Context(), model.Project{
		Name:        req.Name,
		Description: req.Description,
		RootPath:    req.RootPath,
		ProjectType: projectType,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
