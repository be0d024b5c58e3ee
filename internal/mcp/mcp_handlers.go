package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/tagchurn/core"
	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.GitClient
	mgr     contract.CacheManager
}

// churnResponse is the payload of get_tag_churn.
type churnResponse struct {
	Summary   schema.ChurnSummary `json:"summary"`
	Truncated bool                `json:"truncated"`
	Rows      []schema.ChurnRow   `json:"rows"`
}

// configFor clones the base config and re-roots it when repo_path is given.
func (h *toolHandler) configFor(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		root, err := h.client.GetRepoRoot(ctx, p)
		if err != nil {
			return nil, err
		}
		cfg.RepoPath = root
		cfg.PathFilter = ""
	}
	return cfg, nil
}

func (h *toolHandler) handleGetTagChurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	if r := request.GetString("range", ""); r != "" {
		cfg.RangeArgs = strings.Fields(r)
		if err := contract.ValidateRangeArgs(cfg.RangeArgs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid range: %v", err)), nil
		}
	}
	if err := contract.RevalidateChurn(cfg, request.GetString("format", ""), request.GetInt("max_changes", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid churn parameters: %v", err)), nil
	}
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid churn parameters: limit must be positive, got %d", limit)), nil
	}

	rows, summary, err := core.ChurnRows(ctx, cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("churn failed: %v", err)), nil
	}

	resp := churnResponse{Summary: summary, Rows: rows}
	if limit > 0 && len(rows) > limit {
		resp.Rows = rows[:limit]
		resp.Truncated = true
	}
	jsonData, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	rev := request.GetString("rev", "HEAD")

	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}

	tags, err := core.ListTags(ctx, cfg, h.client, h.mgr, rev, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list tags failed: %v", err)), nil
	}
	if tags == nil {
		tags = []schema.Tag{}
	}
	jsonData, _ := json.MarshalIndent(tags, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
