package cmd

import (
	"github.com/huangsam/tagchurn/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd serves churn tools over stdio. Nothing else may write to stdout
// while it runs.
var mcpCmd = &cobra.Command{
	Use:     "mcp [repo-path]",
	Short:   "Start the tagchurn MCP server",
	Long:    `Launch an MCP server that lets AI agents compute tag churn and list tags via standard tools.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(cmd.Context(), cfg, cacheManager)
	},
}
