package httpapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/model"
)

// handleUploadLogFile accepts a multipart upload under field "file",
// copies it into the project's logs cache, and records it in storage.
func (s *Server) handleUploadLogFile(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindInvalidInput, "failed to parse upload", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindInvalidInput, "missing file field", err))
		return
	}
	defer file.Close()

	destDir := s.logsDirFor(projectID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindStorage, "failed to prepare upload directory", err))
		return
	}
	destPath := filepath.Join(destDir, uuid.NewString()+"-"+filepath.Base(header.Filename))

	dest, err := os.Create(destPath)
	if err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindStorage, "failed to create upload file", err))
		return
	}
	defer dest.Close()

	written, err := io.Copy(dest, file)
	if err != nil {
		writeError(w, r, clierr.Wrap(clierr.KindStorage, "failed to store upload", err))
		return
	}

	id, err := s.store.CreateLogFile(r.Context(), model.LogFile{
		ProjectID:  projectID,
		Filename:   header.Filename,
		Size:       written,
		UploadPath: destPath,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := s.store.GetLogFile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// logsDirFor resolves the on-disk logs cache for a project: its linked
// .loglens/logs directory when the registry knows about it, otherwise a
// scratch directory keyed by project id.
func (s *Server) logsDirFor(projectID string) string {
	if s.registry != nil {
		if entry, ok := s.registry.Get(projectID); ok {
			return filepath.Join(entry.LoglensDir, "logs")
		}
	}
	return filepath.Join(os.TempDir(), "loglens-uploads", projectID)
}
