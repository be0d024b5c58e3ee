// Package agg merges per-commit attribution results into ordered churn rows.
package agg

import (
	"github.com/huangsam/tagchurn/core/attrib"
	"github.com/huangsam/tagchurn/core/tagfmt"
	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// CommitResult is the attribution of one scheduled commit.
// Seq numbers scheduled commits contiguously from zero in log order.
type CommitResult struct {
	Seq  int
	Hash string
	Acc  *attrib.Accumulator
}

// Aggregator applies the max_changes filter and releases rows in log order.
// Admit is called by the scheduler and Add by the single merging goroutine;
// neither is safe for concurrent use with itself.
type Aggregator struct {
	maxChanges int
	render     tagfmt.Renderer

	pending map[int]CommitResult
	next    int
	rows    []schema.ChurnRow
	summary schema.ChurnSummary
}

// New creates an Aggregator. A maxChanges of 0 disables the file count filter.
func New(maxChanges int, render tagfmt.Renderer) *Aggregator {
	return &Aggregator{
		maxChanges: maxChanges,
		render:     render,
		pending:    make(map[int]CommitResult),
	}
}

// Admit reports whether a commit touching fileCount distinct files should be
// attributed at all. Rejected commits produce no rows.
func (a *Aggregator) Admit(fileCount int) bool {
	a.summary.CommitsSeen++
	if a.maxChanges > 0 && fileCount > a.maxChanges {
		a.summary.CommitsFiltered++
		return false
	}
	return true
}

// Add buffers result and returns the rows of every commit that is now next in
// log order. Results may arrive in any order.
func (a *Aggregator) Add(result CommitResult) []schema.ChurnRow {
	a.pending[result.Seq] = result

	var released []schema.ChurnRow
	for {
		r, ok := a.pending[a.next]
		if !ok {
			break
		}
		delete(a.pending, a.next)
		a.next++
		released = append(released, a.rowsFor(r)...)
	}
	a.rows = append(a.rows, released...)
	return released
}

func (a *Aggregator) rowsFor(r CommitResult) []schema.ChurnRow {
	var rows []schema.ChurnRow
	for _, e := range r.Acc.Entries() {
		churn := e.Churn()
		if churn == 0 {
			continue
		}
		rows = append(rows, schema.ChurnRow{
			Commit:  r.Hash,
			Churn:   churn,
			Added:   e.Added,
			Removed: e.Removed,
			Label:   a.render(e.Tag),
			Path:    e.Tag.Path,
		})
		a.summary.TotalChurn += churn
	}
	if len(rows) > 0 {
		a.summary.CommitsEmitted++
	}
	a.summary.Rows += len(rows)
	return rows
}

// Pending returns the number of buffered results still waiting for an earlier commit.
func (a *Aggregator) Pending() int {
	return len(a.pending)
}

// Rows returns every row released so far, in log order.
func (a *Aggregator) Rows() []schema.ChurnRow {
	return a.rows
}

// Summary returns the counters of the run so far.
func (a *Aggregator) Summary() schema.ChurnSummary {
	return a.summary
}

// LogFiltered records a commit rejected by Admit at info level.
func LogFiltered(hash string, fileCount, maxChanges int) {
	contract.LogInfo("skipping commit over max-changes", "commit", hash, "files", fileCount, "max_changes", maxChanges)
}
