package outwriter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// LogChurnHeader prints a concise 2-line header before a table run. Machine
// formats get no header so their stream stays parseable.
func LogChurnHeader(w io.Writer, cfg *contract.Config) {
	if cfg.Output != schema.TextOut {
		return
	}
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}
	rangeDesc := "HEAD"
	if len(cfg.RangeArgs) > 0 {
		rangeDesc = strings.Join(cfg.RangeArgs, " ")
	}
	order := "newest first"
	if cfg.Reverse {
		order = "oldest first"
	}

	fmt.Fprintf(w, "🔎 Repo: %s (Analyzer: %s, Format: %s)\n", repoName, cfg.Analyzer, cfg.Format)
	fmt.Fprintf(w, "📅 Range: %s (%s)\n", rangeDesc, order)
}

// LogWritten reports where a finished run was saved. Stdout runs print nothing.
func LogWritten(w io.Writer, cfg *contract.Config) {
	if cfg.OutputFile == "" {
		return
	}
	fmt.Fprintf(w, "💾 Wrote %s to %s\n", cfg.Output, cfg.OutputFile)
}
