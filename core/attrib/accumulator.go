// Package attrib attributes line-level change events to the tags that enclose them.
package attrib

import (
	"strings"

	"github.com/huangsam/tagchurn/schema"
)

// Entry holds the counts of one tag within one commit.
type Entry struct {
	Tag     schema.Tag
	Added   int
	Removed int
}

// Churn is the number of added plus removed lines.
func (e Entry) Churn() int {
	return e.Added + e.Removed
}

// entryKey identifies a tag by everything a label can show, plus its path.
// Line ranges are excluded so pre and post versions of a tag share counts.
type entryKey struct {
	path      string
	name      string
	kind      string
	scope     string
	scopeKind string
}

func keyOf(t schema.Tag) entryKey {
	return entryKey{
		path:      t.Path,
		name:      t.Name,
		kind:      t.Kind,
		scope:     strings.Join(t.Scope, "\x00"),
		scopeKind: t.ScopeKind,
	}
}

// Accumulator collects per-tag counts for one commit in first-seen order.
// It is owned by a single worker and is not safe for concurrent use.
type Accumulator struct {
	index   map[entryKey]int
	entries []Entry
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{index: make(map[entryKey]int)}
}

// Add counts one changed line of kind against tag.
func (a *Accumulator) Add(tag schema.Tag, kind schema.ChangeKind) {
	k := keyOf(tag)
	i, ok := a.index[k]
	if !ok {
		i = len(a.entries)
		a.index[k] = i
		a.entries = append(a.entries, Entry{Tag: tag})
	}
	switch kind {
	case schema.Added:
		a.entries[i].Added++
	case schema.Removed:
		a.entries[i].Removed++
	}
}

// Entries returns the accumulated entries in insertion order.
func (a *Accumulator) Entries() []Entry {
	if a == nil {
		return nil
	}
	return a.entries
}

// Len returns the number of distinct tags seen.
func (a *Accumulator) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Total returns the churn summed over all entries.
func (a *Accumulator) Total() int {
	total := 0
	for _, e := range a.Entries() {
		total += e.Churn()
	}
	return total
}
