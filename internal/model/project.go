// Package model defines the data types shared across LogLens's analysis
// pipeline, storage layer, and front-ends.
package model

import "time"

// ProjectType classifies how a project's logs are typically produced.
type ProjectType string

const (
	ProjectTypeCLI     ProjectType = "cli"
	ProjectTypeWeb     ProjectType = "web"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Project is a named root under which log files, analyses, and streaming
// sources are organized.
type Project struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	RootPath     string      `json:"root_path"`
	ProjectType  ProjectType `json:"project_type"`
	Config       string      `json:"config,omitempty"` // free-form JSON blob
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	LastAccessed *time.Time  `json:"last_accessed,omitempty"`
}

// LogFile records an uploaded or linked log file belonging to a project.
// LogFiles are immutable once created.
type LogFile struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadPath string    `json:"upload_path"`
	CreatedAt  time.Time `json:"created_at"`
}

// LinkedProject is the registry's weak, path-based view of a project.
type LinkedProject struct {
	ProjectID    string     `json:"project_id"`
	Name         string     `json:"name"`
	RootPath     string     `json:"root_path"`
	LoglensDir   string     `json:"loglens_dir"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
}

// Metadata mirrors the on-disk .loglens/metadata.json authoritative id.
type Metadata struct {
	ProjectID   string      `json:"project_id"`
	ProjectName string      `json:"project_name"`
	ProjectType ProjectType `json:"project_type"`
	CreatedAt   time.Time   `json:"created_at"`
}
