package attrib

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	parentHash = "1111111111111111111111111111111111111111"
	childHash  = "2222222222222222222222222222222222222222"
)

type recordingObserver struct {
	attributed []string
	skipped    []string
}

func (o *recordingObserver) FileAttributed(path string, _, _ int) {
	o.attributed = append(o.attributed, path)
}

func (o *recordingObserver) FileSkipped(path string, _ error) {
	o.skipped = append(o.skipped, path)
}

func numbered(n int) []byte {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return []byte(b.String())
}

func modifiedDiff() []byte {
	return []byte(`diff --git a/f.py b/f.py
index 1111111..2222222 100644
--- a/f.py
+++ b/f.py
@@ -5 +5 @@ def foo():
-    return 1
+    return 2
@@ -10,0 +11 @@ def foo():
+print("tail")
`)
}

func deletedDiff(lines int) []byte {
	var b strings.Builder
	b.WriteString("diff --git a/g.py b/g.py\ndeleted file mode 100644\nindex 3333333..0000000\n--- a/g.py\n+++ /dev/null\n")
	fmt.Fprintf(&b, "@@ -1,%d +0,0 @@\n", lines)
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "-line %d\n", i)
	}
	return []byte(b.String())
}

func TestEngine_ModifiedFile(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	preContent, postContent := numbered(10), numbered(11)
	git.On("ShowFile", ctx, "/repo", parentHash, "f.py").Return(preContent, nil)
	git.On("ShowFile", ctx, "/repo", childHash, "f.py").Return(postContent, nil)
	foo := []schema.Tag{{Name: "foo", Kind: "function", StartLine: 3, EndLine: 7}}
	analyzer.On("Tags", ctx, "f.py", mock.Anything).Return(foo, nil)

	obs := &recordingObserver{}
	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo", Untagged: true, Observer: obs}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"foo": 2, "<untagged>": 1}, churnByName(acc))
	assert.Equal(t, "f.py", acc.Entries()[0].Tag.Path)
	assert.Equal(t, []string{"f.py"}, obs.attributed)
	git.AssertExpectations(t)
	analyzer.AssertExpectations(t)
}

func TestEngine_DeletedFileUsesPreImageOnly(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	git.On("ShowFile", ctx, "/repo", parentHash, "g.py").Return(numbered(20), nil).Once()
	bar := []schema.Tag{{Name: "Bar", Kind: "class", StartLine: 1, EndLine: 20}}
	analyzer.On("Tags", ctx, "g.py", mock.Anything).Return(bar, nil).Once()

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo"}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "g.py", Status: schema.FileDeleted, Diff: deletedDiff(20)}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, acc.Len())
	assert.Equal(t, 20, acc.Entries()[0].Removed)
	assert.Equal(t, 20, acc.Entries()[0].Churn())
	git.AssertExpectations(t)
}

func TestEngine_RootCommitHasNoPreImage(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	diff := []byte("diff --git a/n.py b/n.py\nnew file mode 100644\n--- /dev/null\n+++ b/n.py\n@@ -0,0 +1,2 @@\n+def n():\n+    pass\n")
	git.On("ShowFile", ctx, "/repo", childHash, "n.py").Return([]byte("def n():\n    pass\n"), nil)
	analyzer.On("Tags", ctx, "n.py", mock.Anything).Return([]schema.Tag{{Name: "n", Kind: "function", StartLine: 1, EndLine: 2}}, nil)

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo"}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:  childHash,
		Files: []schema.FileChange{{Path: "n.py", Status: schema.FileModified, Diff: diff}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"n": 2}, churnByName(acc))
	git.AssertNotCalled(t, "ShowFile", ctx, "/repo", "", "n.py")
}

func TestEngine_AbsentPathIsEmptyIndex(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	git.On("ShowFile", ctx, "/repo", parentHash, "f.py").Return(nil, fmt.Errorf("x: %w", contract.ErrPathAbsent))
	git.On("ShowFile", ctx, "/repo", childHash, "f.py").Return(numbered(11), nil)
	analyzer.On("Tags", ctx, "f.py", mock.Anything).Return([]schema.Tag{{Name: "foo", Kind: "function", StartLine: 3, EndLine: 7}}, nil)

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo"}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, acc.Len())
	assert.Equal(t, 1, acc.Entries()[0].Added)
	assert.Equal(t, 0, acc.Entries()[0].Removed)
}

func TestEngine_AnalyzerFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	git.On("ShowFile", ctx, "/repo", mock.Anything, "f.py").Return(numbered(11), nil)
	analyzer.On("Tags", ctx, "f.py", mock.Anything).Return(nil, errors.New("parse failed"))

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo", Untagged: true}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"<untagged>": 3}, churnByName(acc))
}

func TestEngine_AnalyzerUnavailableIsFatal(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	git.On("ShowFile", ctx, "/repo", mock.Anything, "f.py").Return(numbered(11), nil)
	analyzer.On("Tags", ctx, "f.py", mock.Anything).Return(nil, fmt.Errorf("ctags: %w", contract.ErrAnalyzerUnavailable))

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo"}
	_, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	assert.ErrorIs(t, err, contract.ErrAnalyzerUnavailable)
}

func TestEngine_GitFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	git.On("ShowFile", ctx, "/repo", mock.Anything, "f.py").Return(nil, &contract.GitError{Args: []string{"show"}, Stderr: "bad object"})

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo"}
	_, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	var gitErr *contract.GitError
	assert.ErrorAs(t, err, &gitErr)
	analyzer.AssertNotCalled(t, "Tags", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_BinaryDiffSkipped(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	obs := &recordingObserver{}
	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo", Untagged: true, Observer: obs}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files: []schema.FileChange{{
			Path:   "logo.png",
			Status: schema.FileModified,
			Diff:   []byte("diff --git a/logo.png b/logo.png\nindex 1..2 100644\nBinary files a/logo.png and b/logo.png differ\n"),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, acc.Len())
	assert.Equal(t, []string{"logo.png"}, obs.skipped)
	git.AssertNotCalled(t, "ShowFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_InvalidTagRangeDropped(t *testing.T) {
	ctx := context.Background()
	git := new(contract.MockGitClient)
	analyzer := new(contract.MockTagAnalyzer)

	git.On("ShowFile", ctx, "/repo", mock.Anything, "f.py").Return(numbered(11), nil)
	analyzer.On("Tags", ctx, "f.py", mock.Anything).Return([]schema.Tag{
		{Name: "foo", Kind: "function", StartLine: 3, EndLine: 7},
		{Name: "ghost", Kind: "function", StartLine: 4, EndLine: 400},
	}, nil)

	engine := &Engine{Git: git, Tags: analyzer, Repo: "/repo"}
	acc, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:   childHash,
		Parent: parentHash,
		Files:  []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"foo": 2}, churnByName(acc))
}

func TestEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &Engine{Git: new(contract.MockGitClient), Tags: new(contract.MockTagAnalyzer), Repo: "/repo"}
	_, err := engine.AttributeCommit(ctx, schema.CommitRecord{
		Hash:  childHash,
		Files: []schema.FileChange{{Path: "f.py", Status: schema.FileModified, Diff: modifiedDiff()}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
