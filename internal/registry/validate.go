package registry

import (
	"os"
	"path/filepath"

	"github.com/loglens/loglens/internal/model"
)

// IssueType classifies a validate_links finding.
type IssueType string

const (
	IssueMissingRoot        IssueType = "MissingRoot"
	IssueMissingMetadata    IssueType = "MissingMetadata"
	IssueIDMismatch         IssueType = "IDMismatch"
	IssueManualIntervention IssueType = "manual_intervention"
)

// Issue is one finding from ValidateLinks.
type Issue struct {
	ProjectID string    `json:"project_id"`
	RootPath  string    `json:"root_path"`
	Type      IssueType `json:"type"`
	Message   string    `json:"message"`
}

// ValidateLinks verifies, for every registered project, that root_path
// exists, contains .loglens/metadata.json, and that metadata's id matches
// the registry id. It never mutates the registry.
func (r *Registry) ValidateLinks() []Issue {
	var issues []Issue
	for _, entry := range r.List() {
		if issue, ok := checkEntry(entry); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

// ValidateAndRepair deletes entries whose root path or metadata file is
// missing; entries whose on-disk metadata id differs from the registry id
// are reported as manual_intervention and left untouched.
func (r *Registry) ValidateAndRepair() []Issue {
	var issues []Issue
	for _, entry := range r.List() {
		issue, ok := checkEntry(entry)
		if !ok {
			continue
		}
		switch issue.Type {
		case IssueMissingRoot, IssueMissingMetadata:
			if err := r.unregister(entry.ProjectID); err == nil {
				issues = append(issues, issue)
			}
		case IssueIDMismatch:
			issue.Type = IssueManualIntervention
			issues = append(issues, issue)
		}
	}
	return issues
}

func checkEntry(entry model.LinkedProject) (Issue, bool) {
	if _, err := os.Stat(entry.RootPath); err != nil {
		return Issue{ProjectID: entry.ProjectID, RootPath: entry.RootPath, Type: IssueMissingRoot, Message: "root path does not exist"}, true
	}
	meta, err := readMetadata(entry.RootPath)
	if err != nil {
		return Issue{ProjectID: entry.ProjectID, RootPath: entry.RootPath, Type: IssueMissingMetadata, Message: "missing or unreadable " + filepath.Join(entry.RootPath, metadataRelPath)}, true
	}
	if meta.ProjectID != entry.ProjectID {
		return Issue{ProjectID: entry.ProjectID, RootPath: entry.RootPath, Type: IssueIDMismatch, Message: "on-disk metadata id does not match registry id"}, true
	}
	return Issue{}, false
}
