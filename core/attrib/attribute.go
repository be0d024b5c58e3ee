package attrib

import (
	"github.com/huangsam/tagchurn/core/rangeindex"
	"github.com/huangsam/tagchurn/core/tagfmt"
	"github.com/huangsam/tagchurn/schema"
)

// Attribute adds every event of path to acc. Added lines are looked up in post
// and removed lines in pre. Each enclosing tag gets the full count, so nested
// tags all see the line. Lines outside any tag go to the synthetic untagged tag
// when untagged is set and are dropped otherwise.
func Attribute(path string, events []schema.ChangeEvent, pre, post *rangeindex.Index, acc *Accumulator, untagged bool) {
	for _, ev := range events {
		idx := pre
		if ev.Kind == schema.Added {
			idx = post
		}

		tags := idx.Query(ev.Line)
		if len(tags) == 0 {
			if untagged {
				acc.Add(tagfmt.Untagged(path), ev.Kind)
			}
			continue
		}
		for _, t := range tags {
			acc.Add(t, ev.Kind)
		}
	}
}
