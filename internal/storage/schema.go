package storage

// schemaStatements creates the core tables if absent. Each statement is
// idempotent (CREATE TABLE IF NOT EXISTS), matching the logical schema
// of spec.md §4.9.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		root_path TEXT UNIQUE,
		loglens_config TEXT,
		project_type TEXT NOT NULL DEFAULT 'unknown',
		last_accessed TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS log_files (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		filename TEXT NOT NULL,
		size INTEGER NOT NULL,
		upload_path TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		log_file_id TEXT REFERENCES log_files(id),
		log_file_path TEXT NOT NULL,
		analysis_type TEXT NOT NULL DEFAULT 'full',
		provider TEXT NOT NULL,
		level_filter TEXT NOT NULL,
		status TEXT NOT NULL,
		result TEXT,
		error_message TEXT,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		started_at TIMESTAMP,
		completed_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS analysis_results (
		analysis_id TEXT PRIMARY KEY REFERENCES analyses(id),
		summary TEXT,
		full_report TEXT,
		patterns_detected TEXT NOT NULL DEFAULT '[]',
		issues_found INTEGER,
		metadata TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS streaming_sources (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		config TEXT NOT NULL,
		parser_config TEXT,
		buffer_size INTEGER,
		batch_timeout_seconds INTEGER,
		restart_on_error INTEGER NOT NULL DEFAULT 1,
		max_restarts INTEGER,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_project_created ON analyses(project_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_results_analysis ON analysis_results(analysis_id)`,
	`CREATE INDEX IF NOT EXISTS idx_streaming_sources_project_status ON streaming_sources(project_id, status)`,
}

// columnMigrations adds columns that earlier schema versions lacked.
// Applying ALTER TABLE ADD COLUMN to a table that already has the column
// errors, so each is gated on a PRAGMA table_info lookup at Open time
// (see Store.migrate in storage.go), keeping schema evolution forward-only and idempotent.
var columnMigrations = []struct {
	table  string
	column string
	ddl    string
}{
	{"analyses", "analysis_type", "ALTER TABLE analyses ADD COLUMN analysis_type TEXT NOT NULL DEFAULT 'full'"},
	{"analyses", "metadata", "ALTER TABLE analyses ADD COLUMN metadata TEXT"},
}
