package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/internal/iocache"
	"github.com/huangsam/tagchurn/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	hashA   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	parentA = "1111111111111111111111111111111111111111"
	hashB   = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	parentB = "2222222222222222222222222222222222222222"
	hashC   = "cccccccccccccccccccccccccccccccccccccccc"
	parentC = "3333333333333333333333333333333333333333"
)

func numbered(n int) []byte {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return []byte(b.String())
}

// churnLog has commit A modifying f.py (foo gets 2, one line untagged) and
// commit B deleting the 20-line g.py (Bar gets 20).
func churnLog() []byte {
	var b strings.Builder
	b.WriteString(contract.CommitMarker + hashA + " " + parentA + "\n\n")
	b.WriteString("diff --git a/f.py b/f.py\nindex 1111111..2222222 100644\n--- a/f.py\n+++ b/f.py\n")
	b.WriteString("@@ -5 +5 @@ def foo():\n-    return 1\n+    return 2\n")
	b.WriteString("@@ -10,0 +11 @@ def foo():\n+print(\"tail\")\n")
	b.WriteString(contract.CommitMarker + hashB + " " + parentB + "\n\n")
	b.WriteString("diff --git a/g.py b/g.py\ndeleted file mode 100644\nindex 3333333..0000000\n--- a/g.py\n+++ /dev/null\n")
	b.WriteString("@@ -1,20 +0,0 @@\n")
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "-line %d\n", i)
	}
	return []byte(b.String())
}

// wideCommit touches two files so it trips a max-changes of 1.
func wideCommit() string {
	return contract.CommitMarker + hashC + " " + parentC + "\n\n" +
		"diff --git a/x.py b/x.py\nindex 1..2 100644\n--- a/x.py\n+++ b/x.py\n@@ -1 +1 @@\n-a\n+b\n" +
		"diff --git a/y.py b/y.py\nindex 1..2 100644\n--- a/y.py\n+++ b/y.py\n@@ -1 +1 @@\n-a\n+b\n"
}

func setupMocks(log []byte) (*contract.MockGitClient, *contract.MockTagAnalyzer) {
	git := new(contract.MockGitClient)
	git.On("GetChurnLog", mock.Anything, "/repo", []string{"HEAD~2..HEAD"}, false).Return(log, nil)
	git.On("ShowFile", mock.Anything, "/repo", parentA, "f.py").Return(numbered(10), nil)
	git.On("ShowFile", mock.Anything, "/repo", hashA, "f.py").Return(numbered(11), nil)
	git.On("ShowFile", mock.Anything, "/repo", parentB, "g.py").Return(numbered(20), nil)

	analyzer := new(contract.MockTagAnalyzer)
	analyzer.On("Name").Return("mock")
	analyzer.On("Tags", mock.Anything, "f.py", mock.Anything).
		Return([]schema.Tag{{Name: "foo", Kind: "function", StartLine: 1, EndLine: 10}}, nil)
	analyzer.On("Tags", mock.Anything, "g.py", mock.Anything).
		Return([]schema.Tag{{Name: "Bar", Kind: "class", StartLine: 1, EndLine: 20}}, nil)
	return git, analyzer
}

func testConfig() *contract.Config {
	return &contract.Config{
		RepoPath:  "/repo",
		RangeArgs: []string{"HEAD~2..HEAD"},
		Format:    schema.HumanFormat,
		Untagged:  true,
		Workers:   4,
	}
}

func collect(rows *[]schema.ChurnRow) func([]schema.ChurnRow) error {
	return func(batch []schema.ChurnRow) error {
		*rows = append(*rows, batch...)
		return nil
	}
}

var expectedRows = []schema.ChurnRow{
	{Commit: hashA, Churn: 2, Added: 1, Removed: 1, Label: "f.py > foo (function)", Path: "f.py"},
	{Commit: hashA, Churn: 1, Added: 1, Removed: 0, Label: "f.py > <untagged> (file)", Path: "f.py"},
	{Commit: hashB, Churn: 20, Added: 0, Removed: 20, Label: "g.py > Bar (class)", Path: "g.py"},
}

func TestRunChurn(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	metrics := NewMetrics()

	var rows []schema.ChurnRow
	summary, err := runChurn(context.Background(), testConfig(), git, analyzer, nil, metrics, collect(&rows))
	require.NoError(t, err)

	assert.Equal(t, expectedRows, rows)
	assert.Equal(t, schema.ChurnSummary{CommitsSeen: 2, CommitsEmitted: 2, Rows: 3, TotalChurn: 23}, summary)
	git.AssertExpectations(t)
}

func TestRunChurn_OrderIndependentOfWorkers(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			git, analyzer := setupMocks(churnLog())
			cfg := testConfig()
			cfg.Workers = workers

			var rows []schema.ChurnRow
			_, err := runChurn(context.Background(), cfg, git, analyzer, nil, NewMetrics(), collect(&rows))
			require.NoError(t, err)
			assert.Equal(t, expectedRows, rows)
		})
	}
}

func TestRunChurn_UntaggedOff(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	cfg := testConfig()
	cfg.Untagged = false
	cfg.Format = schema.ShortFormat

	var rows []schema.ChurnRow
	summary, err := runChurn(context.Background(), cfg, git, analyzer, nil, NewMetrics(), collect(&rows))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "foo (function)", rows[0].Label)
	assert.Equal(t, "Bar (class)", rows[1].Label)
	assert.Equal(t, 22, summary.TotalChurn)
}

func TestRunChurn_MaxChanges(t *testing.T) {
	git, analyzer := setupMocks(append(churnLog(), wideCommit()...))
	cfg := testConfig()
	cfg.MaxChanges = 1
	metrics := NewMetrics()

	var rows []schema.ChurnRow
	summary, err := runChurn(context.Background(), cfg, git, analyzer, nil, metrics, collect(&rows))
	require.NoError(t, err)

	assert.Equal(t, expectedRows, rows)
	assert.Equal(t, 3, summary.CommitsSeen)
	assert.Equal(t, 1, summary.CommitsFiltered)
	git.AssertNotCalled(t, "ShowFile", mock.Anything, "/repo", hashC, "x.py")
	assert.Equal(t, 1.0, counterOf(t, metrics, "tagchurn_commits_total", "status", "filtered"))
	assert.Equal(t, 2.0, counterOf(t, metrics, "tagchurn_commits_total", "status", "processed"))
}

func TestRunChurn_PathFilterDropsEmptyCommits(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	cfg := testConfig()
	cfg.Excludes = []string{"g.py"}

	var rows []schema.ChurnRow
	summary, err := runChurn(context.Background(), cfg, git, analyzer, nil, NewMetrics(), collect(&rows))
	require.NoError(t, err)
	assert.Equal(t, expectedRows[:2], rows)
	assert.Equal(t, 1, summary.CommitsSeen)
	git.AssertNotCalled(t, "ShowFile", mock.Anything, "/repo", parentB, "g.py")
}

func TestRunChurn_GitLogError(t *testing.T) {
	git := new(contract.MockGitClient)
	git.On("GetChurnLog", mock.Anything, "/repo", []string{"HEAD~2..HEAD"}, false).
		Return(nil, &contract.GitError{Args: []string{"log"}, Stderr: "bad revision"})

	_, err := runChurn(context.Background(), testConfig(), git, new(contract.MockTagAnalyzer), nil, NewMetrics(), collect(new([]schema.ChurnRow)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git log")
	var gitErr *contract.GitError
	assert.True(t, errors.As(err, &gitErr))
}

func TestRunChurn_AnalyzerUnavailableIsFatal(t *testing.T) {
	git, _ := setupMocks(churnLog())
	analyzer := new(contract.MockTagAnalyzer)
	analyzer.On("Tags", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("ctags: %w", contract.ErrAnalyzerUnavailable))

	_, err := runChurn(context.Background(), testConfig(), git, analyzer, nil, NewMetrics(), collect(new([]schema.ChurnRow)))
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrAnalyzerUnavailable)
}

func TestRunChurn_ShowFileFailureIsFatal(t *testing.T) {
	git := new(contract.MockGitClient)
	git.On("GetChurnLog", mock.Anything, "/repo", []string{"HEAD~2..HEAD"}, false).Return(churnLog(), nil)
	git.On("ShowFile", mock.Anything, "/repo", mock.Anything, mock.Anything).
		Return(nil, errors.New("git command failed"))

	analyzer := new(contract.MockTagAnalyzer)
	_, err := runChurn(context.Background(), testConfig(), git, analyzer, nil, NewMetrics(), collect(new([]schema.ChurnRow)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit ")
}

func TestRunChurn_EmitErrorStopsRun(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	cfg := testConfig()
	cfg.Workers = 1

	_, err := runChurn(context.Background(), cfg, git, analyzer, nil, NewMetrics(), func([]schema.ChurnRow) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write rows: disk full")
}

func TestRunChurn_CanceledContext(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var rows []schema.ChurnRow
	_, err := runChurn(ctx, testConfig(), git, analyzer, nil, NewMetrics(), collect(&rows))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rows)
}

func TestRunChurn_InvalidFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Format = "xml"
	_, err := runChurn(context.Background(), cfg, new(contract.MockGitClient), new(contract.MockTagAnalyzer), nil, NewMetrics(), collect(new([]schema.ChurnRow)))
	assert.Error(t, err)
}

func TestRunChurn_TracksRun(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	cfg := testConfig()
	cfg.Workers = 1

	runs := new(iocache.MockRunStore)
	runs.On("BeginRun", mock.AnythingOfType("time.Time"), cfg.RunParams()).Return(int64(7), nil)
	runs.On("RecordRows", int64(7), 0, expectedRows[:2]).Return(nil).Once()
	runs.On("RecordRows", int64(7), 2, expectedRows[2:]).Return(nil).Once()
	runs.On("EndRun", int64(7), mock.AnythingOfType("time.Time"),
		schema.ChurnSummary{CommitsSeen: 2, CommitsEmitted: 2, Rows: 3, TotalChurn: 23}).Return(nil)

	mgr := new(iocache.MockCacheManager)
	mgr.On("GetTagStore").Return(nil)
	mgr.On("GetRunStore").Return(runs)

	var rows []schema.ChurnRow
	_, err := runChurn(context.Background(), cfg, git, analyzer, mgr, NewMetrics(), collect(&rows))
	require.NoError(t, err)
	assert.Equal(t, expectedRows, rows)
	runs.AssertExpectations(t)
}

func TestRunChurn_TrackingFailureIsNotFatal(t *testing.T) {
	git, analyzer := setupMocks(churnLog())

	runs := new(iocache.MockRunStore)
	runs.On("BeginRun", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	mgr := new(iocache.MockCacheManager)
	mgr.On("GetTagStore").Return(nil)
	mgr.On("GetRunStore").Return(runs)

	var rows []schema.ChurnRow
	_, err := runChurn(context.Background(), testConfig(), git, analyzer, mgr, NewMetrics(), collect(&rows))
	require.NoError(t, err)
	assert.Equal(t, expectedRows, rows)
	runs.AssertNotCalled(t, "RecordRows", mock.Anything, mock.Anything, mock.Anything)
	runs.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunChurn_UsesTagCache(t *testing.T) {
	git, analyzer := setupMocks(churnLog())
	metrics := NewMetrics()

	store := new(iocache.MockCacheStore)
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))
	store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

	mgr := new(iocache.MockCacheManager)
	mgr.On("GetTagStore").Return(store)
	mgr.On("GetRunStore").Return(nil)

	var rows []schema.ChurnRow
	_, err := runChurn(context.Background(), testConfig(), git, analyzer, mgr, metrics, collect(&rows))
	require.NoError(t, err)
	assert.Equal(t, expectedRows, rows)

	hits, misses := metrics.CacheCounts()
	assert.Equal(t, 0, hits)
	assert.Equal(t, 3, misses, "pre and post of f.py plus pre of g.py")
	store.AssertNumberOfCalls(t, "Set", 3)
}

func TestListTags(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	git.On("ShowFile", ctx, "/repo", "HEAD", "f.py").Return(numbered(10), nil)
	analyzer := new(contract.MockTagAnalyzer)
	analyzer.On("Tags", ctx, "f.py", numbered(10)).
		Return([]schema.Tag{{Name: "foo", Kind: "function", StartLine: 1, EndLine: 10}}, nil)

	tags, err := listTags(ctx, "/repo", git, analyzer, "HEAD", "f.py")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "f.py", tags[0].Path)
}

func TestListTags_AbsentPath(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	git.On("ShowFile", ctx, "/repo", "HEAD", "nope.py").Return(nil, fmt.Errorf("HEAD:nope.py: %w", contract.ErrPathAbsent))

	_, err := listTags(ctx, "/repo", git, new(contract.MockTagAnalyzer), "HEAD", "nope.py")
	assert.ErrorIs(t, err, contract.ErrPathAbsent)
}

func TestFinishMetrics(t *testing.T) {
	m := NewMetrics()
	path := t.TempDir() + "/tagchurn.prom"
	finishMetrics(&contract.Config{MetricsFile: path}, m, 2*time.Second)
	assert.FileExists(t, path)
}
