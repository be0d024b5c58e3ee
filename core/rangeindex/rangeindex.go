// Package rangeindex maps line numbers of one file revision to the tags enclosing them.
package rangeindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/huangsam/tagchurn/schema"
)

// InvalidRangeError reports a tag dropped from an index because of its line range.
type InvalidRangeError struct {
	Tag       schema.Tag
	LineCount int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("tag %q (%s) in %s has invalid range [%d, %d] for %d lines",
		e.Tag.Name, e.Tag.Kind, e.Tag.Path, e.Tag.StartLine, e.Tag.EndLine, e.LineCount)
}

// Index holds the valid tags of one file revision, sorted by start line
// and then by descending end line so enclosers precede the tags they contain.
// A nil Index is empty.
type Index struct {
	tags      []schema.Tag
	lineCount int
}

// Build creates an Index from an unordered tag list. Tags with start < 1,
// start > end, or end beyond lineCount (when lineCount > 0) are skipped and
// reported through the returned error. The Index is always usable.
func Build(tags []schema.Tag, lineCount int) (*Index, error) {
	idx := &Index{
		tags:      make([]schema.Tag, 0, len(tags)),
		lineCount: lineCount,
	}

	var errs []error
	for _, t := range tags {
		if !validRange(t, lineCount) {
			errs = append(errs, &InvalidRangeError{Tag: t, LineCount: lineCount})
			continue
		}
		idx.tags = append(idx.tags, t)
	}

	sort.SliceStable(idx.tags, func(i, j int) bool {
		a, b := idx.tags[i], idx.tags[j]
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.EndLine > b.EndLine
	})

	return idx, errors.Join(errs...)
}

func validRange(t schema.Tag, lineCount int) bool {
	if t.StartLine < 1 || t.StartLine > t.EndLine {
		return false
	}
	return lineCount <= 0 || t.EndLine <= lineCount
}

// Query returns every tag whose range contains line, outer to inner.
// It returns nil when no tag contains the line.
func (idx *Index) Query(line int) []schema.Tag {
	if idx == nil {
		return nil
	}

	var out []schema.Tag
	for _, t := range idx.tags {
		if t.StartLine > line {
			break
		}
		if line <= t.EndLine {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of tags held by the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.tags)
}

// Tags returns a copy of the indexed tags in index order.
func (idx *Index) Tags() []schema.Tag {
	if idx == nil {
		return nil
	}
	out := make([]schema.Tag, len(idx.tags))
	copy(out, idx.tags)
	return out
}
