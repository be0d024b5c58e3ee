// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/tagchurn/schema"
)

var (
	// ErrPathAbsent is returned by ShowFile when the path does not exist at the revision.
	ErrPathAbsent = errors.New("path absent at revision")

	// ErrAnalyzerUnavailable is returned when a tag analyzer cannot run at all.
	ErrAnalyzerUnavailable = errors.New("tag analyzer unavailable")
)

// GitClient defines the Git operations needed for churn attribution.
// This allows the core logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its stdout.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetChurnLog returns the patch log for rangeArgs, one commit per marker line.
	GetChurnLog(ctx context.Context, repoPath string, rangeArgs []string, reverse bool) ([]byte, error)

	// ShowFile returns the content of path at rev. It returns ErrPathAbsent
	// when the path does not exist at that revision.
	ShowFile(ctx context.Context, repoPath, rev, path string) ([]byte, error)
}

// TagAnalyzer extracts structural tags from one file revision.
type TagAnalyzer interface {
	// Name identifies the analyzer and its arguments for cache keys.
	Name() string

	// Tags returns the tags of content, which is the file at path.
	Tags(ctx context.Context, path string, content []byte) ([]schema.Tag, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetTagStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking churn runs and their rows.
type RunStore interface {
	// BeginRun creates a new churn run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordRows stores rows of a run, numbering them from firstSeq
	RecordRows(runID int64, firstSeq int, rows []schema.ChurnRow) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.ChurnSummary) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRows returns every recorded row ordered by run and sequence
	GetAllRows() ([]schema.ChurnRowRecord, error)

	// Close closes the underlying connection
	Close() error
}
