package core

import (
	"time"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// runTracker mirrors a churn run into the run store. Store failures are
// warnings; the run itself never fails because of them.
type runTracker struct {
	store   contract.RunStore
	runID   int64
	nextSeq int
}

func beginTracking(store contract.RunStore, cfg *contract.Config) *runTracker {
	if store == nil {
		return &runTracker{}
	}
	runID, err := store.BeginRun(time.Now(), cfg.RunParams())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return &runTracker{}
	}
	return &runTracker{store: store, runID: runID}
}

func (t *runTracker) record(rows []schema.ChurnRow) {
	if t.store == nil || len(rows) == 0 {
		return
	}
	if err := t.store.RecordRows(t.runID, t.nextSeq, rows); err != nil {
		contract.LogWarn("Failed to record churn rows", err)
		return
	}
	t.nextSeq += len(rows)
}

func (t *runTracker) end(summary schema.ChurnSummary) {
	if t.store == nil {
		return
	}
	if err := t.store.EndRun(t.runID, time.Now(), summary); err != nil {
		contract.LogWarn("Run tracking finalization failed", err)
	}
}
