package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/storage"
)

type createAnalysisRequest struct {
	LogFileID   string `json:"log_file_id"`
	Provider    string `json:"provider"`
	LevelFilter string `json:"level_filter,omitempty"`
}

// handleCreateAnalysis enqueues a Pending analysis; the scheduler (C11)
// claims and runs it on its next tick. log_file_id must reference a
// log_files row already created via the upload endpoint: tick()'s claim
// query filters on log_file_id IS NOT NULL, so an analysis with none
// would sit Pending forever.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	var req createAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindInvalidInput, "invalid request body", err))
		return
	}
	if req.LogFileID == "" || req.Provider == "" {
		writeError(w, r, clierr.New(clierr.KindInvalidInput, "log_file_id and provider are required"))
		return
	}

	logFile, err := s.store.GetLogFile(r.Context(), req.LogFileID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a := model.Analysis{
		ProjectID:   projectID,
		LogFileID:   &req.LogFileID,
		LogFilePath: logFile.UploadPath,
		Provider:    req.Provider,
		LevelFilter: req.LevelFilter,
	}

	id, err := s.store.CreateAnalysis(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, created)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetAnalysisResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := s.store.GetAnalysisResult(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result == nil {
		writeError(w, r, clierr.New(clierr.KindNotFound, "no result stored for analysis: "+id))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	filter := storageFilterFromQuery(r, projectID)

	analyses, err := s.store.QueryAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func storageFilterFromQuery(r *http.Request, projectID string) storage.QueryAnalysesFilter {
	q := r.URL.Query()
	filter := storage.QueryAnalysesFilter{
		ProjectID: projectID,
		Status:    model.AnalysisStatus(q.Get("status")),
	}
	if since := q.Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = &t
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	return filter
}
