package cmd

import (
	"github.com/huangsam/tagchurn/core"
	"github.com/spf13/cobra"
)

// churnCmd attributes churn over a range of commits.
var churnCmd = &cobra.Command{
	Use:   "churn [repo-path] [-- git-log-args...]",
	Short: "Attribute line churn of each commit to the tags it touched",
	Long: `Walk Git history and report, per commit, how many lines were added or
removed inside each function, class, method or other tag.

Everything after "--" is passed to git log verbatim, so any revision range
or limit git understands works here.

The default output is one row per (commit, tag) pair:

  <commit-hash> TAB <churn> TAB <tag-label>

Examples:
  # Churn for the last 50 commits of the current repository
  tagchurn churn -- -n 50

  # Churn between two releases, oldest first, as a table
  tagchurn churn ~/src/project --reverse --output text -- v1.0..v2.0

  # Ignore sweeping commits and generated code
  tagchurn churn --max-changes 30 --exclude "*.pb.go,vendor/" -- main`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return core.ExecuteChurn(cmd.Context(), cfg, cacheManager)
	},
}
