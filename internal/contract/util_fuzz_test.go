package contract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzShouldIgnore feeds changed paths from a churn log against --exclude lists.
func FuzzShouldIgnore(f *testing.F) {
	seeds := []struct {
		path     string
		excludes string // comma-separated, as given to --exclude
	}{
		{"api/v1/service.pb.go", "*.pb.go"},
		{"vendor/github.com/pkg/errors/errors.go", "vendor/"},
		{"web/dist/app.min.js", "*.min.js,node_modules/"},
		{`"dir with space/f.py"`, "dir with space/"},
		{"src/été.py", "*.py"},
		{"internal/gen/[id].go", "[id].go"},
		{"core/churn.go", "**/testdata/**"},
		{"", ""},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.excludes)
	}

	f.Fuzz(func(t *testing.T, path string, excludesStr string) {
		var excludes []string
		for ex := range strings.SplitSeq(excludesStr, ",") {
			if trimmed := strings.TrimSpace(ex); trimmed != "" {
				excludes = append(excludes, trimmed)
			}
		}
		_ = ShouldIgnore(path, excludes)

		// A literal pattern always excludes the path it was copied from.
		if path != "" && strings.TrimSpace(path) == path && !strings.ContainsAny(path, "*?[") && !ShouldIgnore(path, []string{path}) {
			t.Errorf("path %q is not excluded by itself", path)
		}
		if ShouldIgnore(path, nil) {
			t.Errorf("path %q excluded with no patterns", path)
		}
	})
}

// FuzzTruncatePath checks table labels never exceed the column width.
func FuzzTruncatePath(f *testing.F) {
	f.Add("core/attrib/engine.go > Engine.AttributeCommit (method)", 20)
	f.Add("g.py > Bar (class)", 40)
	f.Add("src/été.py > f (function)", 8)
	f.Add("", 5)
	f.Add("a", 1)

	f.Fuzz(func(t *testing.T, label string, maxWidth int) {
		got := TruncatePath(label, maxWidth)
		if maxWidth > 3 && utf8.RuneCountInString(label) > maxWidth {
			if n := utf8.RuneCountInString(got); n != maxWidth {
				t.Errorf("TruncatePath(%q, %d) has %d runes", label, maxWidth, n)
			}
			if !strings.HasPrefix(got, "...") {
				t.Errorf("TruncatePath(%q, %d) = %q lacks ellipsis", label, maxWidth, got)
			}
			return
		}
		if got != label {
			t.Errorf("TruncatePath(%q, %d) = %q, want unchanged", label, maxWidth, got)
		}
	})
}
