package agg

import (
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// FilterFiles keeps the files of a commit that pass the path filter, the
// exclude patterns and, when skipVendor is set, the vendored-path check.
// Repeated paths are collapsed to their first occurrence.
func FilterFiles(files []schema.FileChange, pathFilter string, excludes []string, skipVendor bool) []schema.FileChange {
	seen := make(map[string]struct{}, len(files))
	out := make([]schema.FileChange, 0, len(files))
	for _, f := range files {
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}

		if pathFilter != "" && !strings.HasPrefix(f.Path, pathFilter) {
			continue
		}
		if contract.ShouldIgnore(f.Path, excludes) {
			continue
		}
		if skipVendor && enry.IsVendor(f.Path) {
			continue
		}
		out = append(out, f)
	}
	return out
}
