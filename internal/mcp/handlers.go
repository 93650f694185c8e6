package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loglens/loglens/internal/analyzer"
	"github.com/loglens/loglens/internal/decode"
	"github.com/loglens/loglens/internal/digest"
	"github.com/loglens/loglens/internal/filter"
	"github.com/loglens/loglens/internal/model"
	"github.com/loglens/loglens/internal/parse"
	"github.com/loglens/loglens/internal/provider"
	"github.com/loglens/loglens/internal/storage"
)

// handlers binds every tool to the server's shared dependencies.
type handlers struct {
	deps Deps
}

func (h *handlers) handleParseLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	content := stringArg(args, "content", "")
	if content == "" {
		return errResult("content is required"), nil
	}

	decoded, err := decode.Decode([]byte(content))
	if err != nil {
		return errResult(fmt.Sprintf("decode failed: %v", err)), nil
	}
	entries := parse.Parse(decoded.Lines)
	return jsonResult(entries)
}

func (h *handlers) handleFilterLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	content := stringArg(args, "content", "")
	if content == "" {
		return errResult("content is required"), nil
	}
	level := stringArg(args, "level", "INFO")

	decoded, err := decode.Decode([]byte(content))
	if err != nil {
		return errResult(fmt.Sprintf("decode failed: %v", err)), nil
	}
	entries := parse.Parse(decoded.Lines)
	filtered, err := filter.FilterByName(entries, level)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(filtered)
}

func (h *handlers) handleAnalyzeLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	content := stringArg(args, "content", "")
	if content == "" {
		return errResult("content is required"), nil
	}
	level := stringArg(args, "level", "ERROR")
	providerName := stringArg(args, "provider", "local")

	timeout := h.deps.CallTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	decoded, err := decode.Decode([]byte(content))
	if err != nil {
		return errResult(fmt.Sprintf("decode failed: %v", err)), nil
	}
	entries := parse.Parse(decoded.Lines)
	filtered, err := filter.FilterByName(entries, level)
	if err != nil {
		return errResult(err.Error()), nil
	}

	p, err := provider.New(providerName, h.deps.Credentials(providerName))
	if err != nil {
		return errResult(fmt.Sprintf("unknown provider %q: %v", providerName, err)), nil
	}

	cfg := h.deps.AnalyzerCfg
	if cfg == (analyzer.Config{}) {
		cfg = analyzer.DefaultConfig()
	}
	az := analyzer.New(p, h.deps.Breakers.Get(providerName), timeout, cfg)
	response, err := az.Analyze(callCtx, filtered, model.AnalysisRequest{}, nil)
	if err != nil {
		return errResult(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	d := digest.Build(entries, filtered, decoded.Lines, response, model.DefaultDigestConfig())
	return jsonResult(d)
}

// handleAddLogFile implements spec.md §4.13's add_log_file(project_path,
// log_file_path, level?, provider?, auto_analyze?, api_key?): it persists
// a log_files row under the project located at project_path and, when
// auto_analyze is true, also persists a Pending analyses row (with
// log_file_id set) for the scheduler to claim on its next tick.
func (h *handlers) handleAddLogFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	projectPath := stringArg(args, "project_path", "")
	logFilePath := stringArg(args, "log_file_path", "")
	if projectPath == "" || logFilePath == "" {
		return errResult("project_path and log_file_path are required"), nil
	}
	level := stringArg(args, "level", "ERROR")
	providerName := stringArg(args, "provider", "local")
	autoAnalyze := boolArg(args, "auto_analyze", false)
	apiKey := stringArg(args, "api_key", "")

	entry, err := h.lookupProjectByPath(projectPath)
	if err != nil {
		return errResult(err.Error()), nil
	}

	absLogPath := logFilePath
	if !filepath.IsAbs(absLogPath) {
		absLogPath = filepath.Join(entry.RootPath, logFilePath)
	}

	fileID, err := h.deps.Store.CreateLogFile(ctx, model.LogFile{
		ProjectID:  entry.ProjectID,
		Filename:   filepath.Base(logFilePath),
		UploadPath: absLogPath,
	})
	if err != nil {
		return errResult(err.Error()), nil
	}
	logFile, err := h.deps.Store.GetLogFile(ctx, fileID)
	if err != nil {
		return errResult(err.Error()), nil
	}

	out := map[string]any{"log_file": logFile}
	if autoAnalyze {
		cfg := h.deps.Credentials(providerName)
		if apiKey != "" {
			cfg.APIKey = apiKey
		}
		if _, err := provider.New(providerName, cfg); err != nil {
			return errResult(fmt.Sprintf("unknown provider %q: %v", providerName, err)), nil
		}

		analysisID, err := h.deps.Store.CreateAnalysis(ctx, model.Analysis{
			ProjectID:   entry.ProjectID,
			LogFileID:   &fileID,
			LogFilePath: absLogPath,
			Provider:    providerName,
			LevelFilter: level,
		})
		if err != nil {
			return errResult(err.Error()), nil
		}
		analysis, err := h.deps.Store.GetAnalysis(ctx, analysisID)
		if err != nil {
			return errResult(err.Error()), nil
		}
		out["analysis"] = analysis
	}
	return jsonResult(out)
}

// handleAnalyzeFile implements spec.md §4.13's analyze_file(project_id,
// file_id, provider?): it enqueues a Pending analysis (log_file_id set
// from the named log file) for the scheduler to claim.
func (h *handlers) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	projectID := stringArg(args, "project_id", "")
	fileID := stringArg(args, "file_id", "")
	if projectID == "" || fileID == "" {
		return errResult("project_id and file_id are required"), nil
	}
	if err := h.requireLinkedProject(projectID); err != nil {
		return errResult(err.Error()), nil
	}
	providerName := stringArg(args, "provider", "local")
	level := stringArg(args, "level", "ERROR")

	logFile, err := h.deps.Store.GetLogFile(ctx, fileID)
	if err != nil {
		return errResult(err.Error()), nil
	}

	id, err := h.deps.Store.CreateAnalysis(ctx, model.Analysis{
		ProjectID:   projectID,
		LogFileID:   &fileID,
		LogFilePath: logFile.UploadPath,
		Provider:    providerName,
		LevelFilter: level,
	})
	if err != nil {
		return errResult(err.Error()), nil
	}

	a, err := h.deps.Store.GetAnalysis(ctx, id)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(a)
}

func (h *handlers) handleGetAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	id := stringArg(args, "analysis_id", "")
	if id == "" {
		return errResult("analysis_id is required"), nil
	}

	a, err := h.deps.Store.GetAnalysis(ctx, id)
	if err != nil {
		return errResult(err.Error()), nil
	}

	result, err := h.deps.Store.GetAnalysisResult(ctx, id)
	if err != nil {
		return errResult(err.Error()), nil
	}

	return jsonResult(map[string]any{"analysis": a, "result": result})
}

func (h *handlers) handleGetAnalysisStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	id := stringArg(args, "analysis_id", "")
	if id == "" {
		return errResult("analysis_id is required"), nil
	}

	a, err := h.deps.Store.GetAnalysis(ctx, id)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"status":        a.Status,
		"error_message": a.ErrorMessage,
		"started_at":    a.StartedAt,
		"completed_at":  a.CompletedAt,
	})
}

func (h *handlers) handleQueryAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	filter := storage.QueryAnalysesFilter{
		ProjectID: stringArg(args, "project_id", ""),
		Status:    model.AnalysisStatus(stringArg(args, "status", "")),
	}
	if since := stringArg(args, "since", ""); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = &t
		}
	}
	if limitVal, ok := args["limit"]; ok && limitVal != nil {
		if f, ok := limitVal.(float64); ok {
			filter.Limit = int(f)
		}
	}

	analyses, err := h.deps.Store.QueryAnalyses(ctx, filter)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(analyses)
}

func (h *handlers) handleListAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	projectID := stringArg(args, "project_id", "")
	if projectID == "" {
		return errResult("project_id is required"), nil
	}

	analyses, err := h.deps.Store.QueryAnalyses(ctx, storage.QueryAnalysesFilter{ProjectID: projectID})
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(analyses)
}

func (h *handlers) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := h.deps.Store.ListProjects(ctx)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(projects)
}

func (h *handlers) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	id := stringArg(args, "project_id", "")
	if id == "" {
		return errResult("project_id is required"), nil
	}

	p, err := h.deps.Store.GetProject(ctx, id)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(p)
}

// requireLinkedProject rejects tool calls against a project id the
// registry doesn't know, or whose on-disk .loglens directory is gone,
// matching the "project not initialized" contract for the persisting
// tools (add_log_file, analyze_file).
func (h *handlers) requireLinkedProject(projectID string) error {
	if h.deps.Registry == nil {
		return nil
	}
	entry, ok := h.deps.Registry.Get(projectID)
	if !ok {
		return errors.New("project not initialized: unknown project_id")
	}
	return checkProjectOnDisk(entry)
}

// lookupProjectByPath resolves project_path to its registry entry,
// applying the same "project not initialized" contract as
// requireLinkedProject for tools (add_log_file) that identify the
// project by path rather than id.
func (h *handlers) lookupProjectByPath(path string) (model.LinkedProject, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.LinkedProject{}, fmt.Errorf("invalid project_path: %w", err)
	}
	if h.deps.Registry == nil {
		return model.LinkedProject{}, errors.New("project not initialized: no project registry configured")
	}
	entry, ok := h.deps.Registry.FindByPath(abs)
	if !ok {
		return model.LinkedProject{}, errors.New("project not initialized: unknown project_path")
	}
	if err := checkProjectOnDisk(entry); err != nil {
		return model.LinkedProject{}, err
	}
	return entry, nil
}

func checkProjectOnDisk(entry model.LinkedProject) error {
	if _, err := os.Stat(filepath.Join(entry.RootPath, ".loglens")); err != nil {
		return errors.New("project not initialized: .loglens directory missing")
	}
	return nil
}

// getArgs safely extracts the arguments map from a CallToolRequest.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// boolArg extracts a boolean argument with a default value.
func boolArg(args map[string]interface{}, key string, defaultVal bool) bool {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	b, ok := val.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// jsonResult marshals v and wraps it as a successful tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(data)), nil
}

// errResult creates an MCP tool error result (IsError=true), a tool-level
// error rather than a transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
