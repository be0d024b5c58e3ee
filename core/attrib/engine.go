package attrib

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/tagchurn/core/hunk"
	"github.com/huangsam/tagchurn/core/rangeindex"
	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// TagSource returns the tags of one file revision.
type TagSource interface {
	Tags(ctx context.Context, path string, content []byte) ([]schema.Tag, error)
}

// Observer is told what happened to every file of a commit.
type Observer interface {
	FileAttributed(path string, added, removed int)
	FileSkipped(path string, reason error)
}

// Engine fetches both revisions of each changed file, indexes their tags and
// attributes the file's change events.
type Engine struct {
	Git      contract.GitClient
	Tags     TagSource
	Repo     string
	Untagged bool
	Observer Observer // optional
}

// AttributeCommit returns the accumulated churn of commit. Per-file problems
// are logged and skipped. Git failures other than an absent path and an
// unavailable analyzer are returned.
func (e *Engine) AttributeCommit(ctx context.Context, commit schema.CommitRecord) (*Accumulator, error) {
	acc := NewAccumulator()
	for _, f := range commit.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.attributeFile(ctx, commit, f, acc); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (e *Engine) attributeFile(ctx context.Context, commit schema.CommitRecord, f schema.FileChange, acc *Accumulator) error {
	events, err := hunk.Extract(f.Diff)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("skipping %s in %s", f.Path, shortHash(commit.Hash)), err)
		e.skipped(f.Path, err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}

	var pre, post *rangeindex.Index
	if f.Status != schema.FileAdded && commit.Parent != "" {
		if pre, err = e.index(ctx, commit.Parent, f.Path); err != nil {
			return err
		}
	}
	if f.Status != schema.FileDeleted {
		if post, err = e.index(ctx, commit.Hash, f.Path); err != nil {
			return err
		}
	}

	Attribute(f.Path, events, pre, post, acc, e.Untagged)

	if e.Observer != nil {
		added, removed := hunk.Count(events)
		e.Observer.FileAttributed(f.Path, added, removed)
	}
	return nil
}

// index builds the Range Index of path at rev. An absent path or a failing
// analyzer yields an empty index.
func (e *Engine) index(ctx context.Context, rev, path string) (*rangeindex.Index, error) {
	content, err := e.Git.ShowFile(ctx, e.Repo, rev, path)
	if errors.Is(err, contract.ErrPathAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s: %w", shortHash(rev), path, err)
	}

	tags, err := e.Tags.Tags(ctx, path, content)
	if errors.Is(err, contract.ErrAnalyzerUnavailable) {
		return nil, err
	}
	if err != nil {
		contract.LogWarn(fmt.Sprintf("no tags for %s at %s", path, shortHash(rev)), err)
		return nil, nil
	}

	for i := range tags {
		tags[i].Path = path
	}
	idx, err := rangeindex.Build(tags, schema.LineCount(content))
	if err != nil {
		contract.LogWarn(fmt.Sprintf("dropped tags in %s at %s", path, shortHash(rev)), err)
	}
	return idx, nil
}

func (e *Engine) skipped(path string, reason error) {
	if e.Observer != nil {
		e.Observer.FileSkipped(path, reason)
	}
}

func shortHash(h string) string {
	if len(h) > 10 {
		return h[:10]
	}
	return h
}
