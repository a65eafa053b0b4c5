// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// logOptions are the tool options shared by every log-based tool.
func logOptions(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append([]mcp.ToolOption{
		mcp.WithString("repo_path", mcp.Description("Path to the git or svn working copy (defaults to the server's repository).")),
		mcp.WithString("path", mcp.Description("Path inside the working copy to restrict the log to. Defaults to '.'.")),
		mcp.WithString("after", mcp.Description("Lower date bound, timezone-aware (e.g. '2024-01-01T00:00:00Z' or '6 months ago'). Defaults to one year before 'before'.")),
		mcp.WithString("before", mcp.Description("Upper date bound, timezone-aware. Defaults to now.")),
		mcp.WithString("exclude", mcp.Description("Comma-separated path patterns to exclude.")),
	}, opts...)
}

// NewMCPServer initializes and configures the codemetrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Codemetrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("get_log", logOptions(
		mcp.WithDescription("Collect the canonical change log (one row per changed path per revision) from git or svn."),
	)...), h.handleGetLog)

	s.AddTool(mcp.NewTool("get_ages", logOptions(
		mcp.WithDescription("Age in days of the last change of each path."),
	)...), h.handleGetAges)

	s.AddTool(mcp.NewTool("get_hot_spots", logOptions(
		mcp.WithDescription("Rank paths by change frequency crossed with lines of code (requires cloc)."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	)...), h.handleGetHotSpots)

	s.AddTool(mcp.NewTool("get_co_changes", logOptions(
		mcp.WithDescription("Pairs of paths that tend to change in the same revisions, ranked by coupling."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	)...), h.handleGetCoChanges)

	s.AddTool(mcp.NewTool("get_mass_changesets", logOptions(
		mcp.WithDescription("Revisions that changed more paths than a threshold."),
		mcp.WithNumber("min_changes", mcp.Description("Minimum number of changed paths, exclusive.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	)...), h.handleGetMassChangesets)

	s.AddTool(mcp.NewTool("get_loc",
		mcp.WithDescription("Per-file line counts of the working copy (requires cloc)."),
		mcp.WithString("repo_path", mcp.Description("Path to the working copy.")),
		mcp.WithString("path", mcp.Description("Path inside the working copy. Defaults to '.'.")),
		mcp.WithString("exclude", mcp.Description("Comma-separated path patterns to exclude.")),
	), h.handleGetLoc)

	s.AddTool(mcp.NewTool("download_files",
		mcp.WithDescription("Content of files at a given revision."),
		mcp.WithString("revision", mcp.Description("Revision to read the files at."), mcp.Required()),
		mcp.WithArray("paths", mcp.Description("Paths of the files to download."), mcp.Required(), mcp.WithStringItems()),
		mcp.WithString("repo_path", mcp.Description("Path to the working copy.")),
	), h.handleDownloadFiles)

	return s
}

// StartMCPServer starts the codemetrics MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
