package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	HighChurnColor = color.New(color.FgRed, color.Bold) // churn at or above HighChurn
	MidChurnColor  = color.New(color.FgYellow)          // churn at or above MidChurn
	LowChurnColor  = color.New(color.FgCyan)            // everything else
	UntaggedColor  = color.New(color.Faint)             // synthetic untagged rows
)

// Churn thresholds used for table emphasis.
const (
	HighChurn = 50
	MidChurn  = 10
)

// GetColorChurn returns churn as a colored string for console output (table).
func GetColorChurn(churn int) string {
	text := fmt.Sprintf("%d", churn)
	switch {
	case churn >= HighChurn:
		return HighChurnColor.Sprint(text)
	case churn >= MidChurn:
		return MidChurnColor.Sprint(text)
	default:
		return LowChurnColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output. An empty
// path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "vendor/", "node_modules/", "*.min.js".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *.min.js)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the tag cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tagchurn_cache.db"
	}
	return filepath.Join(homeDir, ".tagchurn_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for churn run storage.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".tagchurn_runs.db"
	}
	return filepath.Join(homeDir, ".tagchurn_runs.db")
}

// TruncatePath truncates a label to a maximum width with an ellipsis prefix.
// Requires maxWidth > 3 so the "..." prefix leaves room for content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
