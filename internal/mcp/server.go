// Package mcp exposes LogLens's analysis pipeline as a set of tool-protocol
// tools (spec.md §4.13), built on the teacher's mark3labs/mcp-go server
// wiring. Tools themselves are rewritten for the log-analysis domain,
// replacing the teacher's system-diagnostic set (get_health,
// collect_metrics, ...).
package mcp

import (
	"context"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/loglens/loglens/internal/analyzer"
	"github.com/loglens/loglens/internal/breaker"
	"github.com/loglens/loglens/internal/logx"
	"github.com/loglens/loglens/internal/provider"
	"github.com/loglens/loglens/internal/registry"
	"github.com/loglens/loglens/internal/storage"
)

// Deps bundles the shared state every tool handler needs.
type Deps struct {
	Store       *storage.Store
	Registry    *registry.Registry
	Breakers    *breaker.Registry
	Credentials func(providerName string) provider.Config
	AnalyzerCfg analyzer.Config
	CallTimeout time.Duration
}

// Server wraps the MCP server instance.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with every LogLens tool registered.
func NewServer(version string, deps Deps) *Server {
	s := server.NewMCPServer("loglens", version, server.WithLogging())
	registerTools(s, deps)
	return &Server{mcpServer: s}
}

// StartStdio runs the server over stdio (blocking). Per spec.md §4.13 the
// stdio transport must never write to stdout outside the protocol frames
// themselves, so the global logger is suppressed first.
func (s *Server) StartStdio(ctx context.Context) error {
	logx.Suppress()
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// StartHTTP runs the server over HTTP, with POST for requests and
// server-sent events for streamed tool results, per spec.md §6.
func (s *Server) StartHTTP(addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer)
	return sseServer.Start(addr)
}

func registerTools(s *server.MCPServer, deps Deps) {
	h := &handlers{deps: deps}

	s.AddTool(mcp.NewTool("parse_logs",
		mcp.WithDescription("Parse raw log text into structured entries (timestamp, level, message, line number)."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw log file content")),
	), h.handleParseLogs)

	s.AddTool(mcp.NewTool("filter_logs",
		mcp.WithDescription("Filter raw log text down to entries at or above a minimum level."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw log file content")),
		mcp.WithString("level", mcp.DefaultString("INFO"), mcp.Enum("DEBUG", "INFO", "WARN", "ERROR", "FATAL"), mcp.Description("Minimum level to keep")),
	), h.handleFilterLogs)

	s.AddTool(mcp.NewTool("analyze_logs",
		mcp.WithDescription("Run the full analysis pipeline (parse, filter, AI analysis, digest) over raw log text, without persisting anything. Use analyze_file for a persisted, asynchronous analysis of a project's log file."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw log file content")),
		mcp.WithString("level", mcp.DefaultString("ERROR"), mcp.Enum("DEBUG", "INFO", "WARN", "ERROR", "FATAL"), mcp.Description("Minimum level to analyze")),
		mcp.WithString("provider", mcp.DefaultString("local"), mcp.Description("Provider name: local, openai, anthropic, gemini, openrouter")),
	), h.handleAnalyzeLogs)

	s.AddTool(mcp.NewTool("add_log_file",
		mcp.WithDescription("Register a log file against a project and, with auto_analyze, enqueue a Pending analysis for the scheduler to claim."),
		mcp.WithString("project_path", mcp.Required(), mcp.Description("Path to an initialized project (contains .loglens/)")),
		mcp.WithString("log_file_path", mcp.Required(), mcp.Description("Log file path, absolute or relative to project_path")),
		mcp.WithString("level", mcp.DefaultString("ERROR"), mcp.Enum("DEBUG", "INFO", "WARN", "ERROR", "FATAL"), mcp.Description("Minimum level for the auto-enqueued analysis")),
		mcp.WithString("provider", mcp.DefaultString("local"), mcp.Description("Provider name: local, openai, anthropic, gemini, openrouter")),
		mcp.WithBoolean("auto_analyze", mcp.DefaultBool(false), mcp.Description("enqueue a Pending analysis immediately")),
		mcp.WithString("api_key", mcp.Description("Credential override for provider, validated immediately and never persisted")),
	), h.handleAddLogFile)

	s.AddTool(mcp.NewTool("analyze_file",
		mcp.WithDescription("Enqueue a persisted, asynchronous analysis of a project's already-registered log file. The scheduler claims and runs it; poll get_analysis_status for progress."),
		mcp.WithString("project_id", mcp.Required()),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("id returned by add_log_file")),
		mcp.WithString("provider", mcp.DefaultString("local")),
		mcp.WithString("level", mcp.DefaultString("ERROR"), mcp.Enum("DEBUG", "INFO", "WARN", "ERROR", "FATAL")),
	), h.handleAnalyzeFile)

	s.AddTool(mcp.NewTool("get_analysis",
		mcp.WithDescription("Get an analysis's full record, including its result once completed."),
		mcp.WithString("analysis_id", mcp.Required()),
	), h.handleGetAnalysis)

	s.AddTool(mcp.NewTool("get_analysis_status",
		mcp.WithDescription("Get only an analysis's lifecycle status (pending/running/completed/failed), cheaper than get_analysis for polling."),
		mcp.WithString("analysis_id", mcp.Required()),
	), h.handleGetAnalysisStatus)

	s.AddTool(mcp.NewTool("query_analyses",
		mcp.WithDescription("Query analyses with optional project, status, and time-window filters."),
		mcp.WithString("project_id"),
		mcp.WithString("status", mcp.Enum("pending", "running", "completed", "failed")),
		mcp.WithString("since", mcp.Description("RFC3339 timestamp lower bound")),
		mcp.WithNumber("limit"),
	), h.handleQueryAnalyses)

	s.AddTool(mcp.NewTool("list_analyses",
		mcp.WithDescription("List all analyses for a project, newest first."),
		mcp.WithString("project_id", mcp.Required()),
	), h.handleListAnalyses)

	s.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List every known project."),
	), h.handleListProjects)

	s.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get a project's record by id."),
		mcp.WithString("project_id", mcp.Required()),
	), h.handleGetProject)
}
