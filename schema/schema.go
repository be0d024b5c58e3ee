// Package schema has models and constants shared by all parts of tagchurn.
package schema

import (
	"bytes"
	"strings"
)

// Tag identifies a structural element within one file revision.
// A Tag has no identity beyond the snapshot it was derived from.
type Tag struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Scope     []string `json:"scope,omitempty"` // Enclosing tag names, outer to inner
	ScopeKind string   `json:"scopeKind,omitempty"`
	Path      string   `json:"path"`
	StartLine int      `json:"startLine"` // 1-based, inclusive
	EndLine   int      `json:"endLine"`   // 1-based, inclusive
}

// QualifiedName joins the scope chain and the tag name with dots.
func (t Tag) QualifiedName() string {
	if len(t.Scope) == 0 {
		return t.Name
	}
	return strings.Join(t.Scope, ".") + "." + t.Name
}

// Contains reports whether line falls within the tag range.
func (t Tag) Contains(line int) bool {
	return line >= t.StartLine && line <= t.EndLine
}

// ChangeEvent is one changed line. Added lines are numbered against the
// post-image and removed lines against the pre-image.
type ChangeEvent struct {
	Line int        `json:"line"`
	Kind ChangeKind `json:"kind"`
}

// FileChange is one file touched by a commit along with its raw diff block.
type FileChange struct {
	Path   string
	Status FileStatus
	Diff   []byte
}

// CommitRecord is one entry of the churn log.
type CommitRecord struct {
	Seq    int    // Position in log traversal order
	Hash   string // Commit hash
	Parent string // First parent hash, empty for root commits
	Files  []FileChange
}

// ChurnRow is a single (commit, tag) output row.
type ChurnRow struct {
	Commit  string `json:"commit"`
	Churn   int    `json:"churn"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Label   string `json:"tag"`
	Path    string `json:"path"`
}

// ChurnSummary describes a finished churn run.
type ChurnSummary struct {
	CommitsSeen     int `json:"commits_seen"`
	CommitsFiltered int `json:"commits_filtered"`
	CommitsEmitted  int `json:"commits_emitted"`
	Rows            int `json:"rows"`
	TotalChurn      int `json:"total_churn"`
}

// LineCount returns the number of lines in content. A final line without a
// trailing newline still counts.
func LineCount(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
