// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the tagchurn MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	return newServer(baseCfg, contract.NewLocalGitClient(baseCfg.GitPath), mgr)
}

func newServer(baseCfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"tagchurn",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("get_tag_churn",
		mcp.WithDescription("Attribute line churn over a range of commits to the functions, classes and other tags it touched."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to the server's repository).")),
		mcp.WithString("range", mcp.Description("Revision range passed to git log, e.g. 'v1.0..HEAD' or '-n 50'. Only revisions, pathspecs after '--' and -n, --max-count, --skip, --since, --until, --after, --before, --author, --first-parent are accepted. Defaults to all of HEAD.")),
		mcp.WithNumber("max_changes", mcp.Description("Skip commits touching more files than this. 0 keeps the server default.")),
		mcp.WithString("format", mcp.Description("Tag label format. Defaults to 'human'."), mcp.Enum("human", "short", "json")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleGetTagChurn)

	s.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List the tags of one file at a revision with their line ranges."),
		mcp.WithString("path", mcp.Description("Repository-relative file path."), mcp.Required()),
		mcp.WithString("rev", mcp.Description("Revision to read the file at. Defaults to HEAD.")),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
	), h.handleListTags)

	return s
}

// StartMCPServer starts the tagchurn MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
