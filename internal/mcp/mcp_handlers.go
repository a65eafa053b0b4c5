package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codemetrics/codemetrics/core"
	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/codemetrics/codemetrics/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// configFor clones the base config and applies the request arguments.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RepoPath = p
		// Another working copy may use another SCM
		cfg.Backend = schema.AutoScm
	}
	if p := request.GetString("path", ""); p != "" {
		cfg.Path = p
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}
	if m := request.GetInt("min_changes", -1); m >= 0 {
		cfg.MinChanges = m
	}
	if ex := request.GetString("exclude", ""); ex != "" {
		cfg.Excludes = nil
		for p := range strings.SplitSeq(ex, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}

	afterStr := request.GetString("after", "")
	beforeStr := request.GetString("before", "")
	if afterStr == "" && beforeStr == "" {
		return cfg, nil
	}
	now := contract.Now()
	before, err := contract.ParseDateBound(beforeStr, now)
	if err != nil {
		return nil, fmt.Errorf("invalid before date: %w", err)
	}
	after, err := contract.ParseDateBound(afterStr, now)
	if err != nil {
		return nil, fmt.Errorf("invalid after date: %w", err)
	}
	cfg.After, cfg.Before = contract.DefaultDateRange(after, before)
	if !cfg.Before.IsZero() && cfg.After.After(cfg.Before) {
		return nil, fmt.Errorf("after cannot be later than before")
	}
	return cfg, nil
}

// respond renders results as indented JSON, or err as a tool error.
func respond(what string, results any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", what, err)), nil
	}
	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode %s: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	table, _, err := core.GetLogResults(core.WithoutProgress(ctx), cfg, h.mgr)
	return respond("log collection", table, err)
}

func (h *toolHandler) handleGetAges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	ages, _, err := core.GetAgesResults(core.WithoutProgress(ctx), cfg, h.mgr)
	return respond("ages", ages, err)
}

func (h *toolHandler) handleGetHotSpots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	spots, _, err := core.GetHotSpotsResults(core.WithoutProgress(ctx), cfg, h.mgr)
	return respond("hot spots", spots, err)
}

func (h *toolHandler) handleGetCoChanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	pairs, _, err := core.GetCoChangesResults(core.WithoutProgress(ctx), cfg, h.mgr)
	return respond("co-changes", pairs, err)
}

func (h *toolHandler) handleGetMassChangesets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	changesets, _, err := core.GetMassChangesetsResults(core.WithoutProgress(ctx), cfg, h.mgr)
	return respond("mass changesets", changesets, err)
}

func (h *toolHandler) handleGetLoc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	loc, _, err := core.GetLocResults(ctx, cfg)
	return respond("line count", loc, err)
}

func (h *toolHandler) handleDownloadFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	revision := request.GetString("revision", "")
	paths := request.GetStringSlice("paths", nil)
	results, _, err := core.GetDownloadResults(ctx, cfg, revision, paths)
	return respond("download", results, err)
}
