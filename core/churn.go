// Package core orchestrates churn runs: it reads the commit log once, fans
// commits out to a bounded worker pool and merges their attribution back in
// log order.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/huangsam/tagchurn/core/agg"
	"github.com/huangsam/tagchurn/core/attrib"
	"github.com/huangsam/tagchurn/core/gitlog"
	"github.com/huangsam/tagchurn/core/tagfmt"
	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/internal/outwriter"
	"github.com/huangsam/tagchurn/internal/tagger"
	"github.com/huangsam/tagchurn/schema"
)

// ExecuteChurn runs a churn pass over cfg.RangeArgs and writes the rows with
// the configured output writer. It serves as the entry point for 'churn'.
func ExecuteChurn(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	client := contract.NewLocalGitClient(cfg.GitPath)
	analyzer, err := tagger.New(cfg)
	if err != nil {
		return err
	}

	w, closeOutput, err := outwriter.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeOutput() }()
	outwriter.LogChurnHeader(os.Stderr, cfg)

	metrics := NewMetrics()
	summary, err := runChurn(ctx, cfg, client, analyzer, mgr, metrics, w.WriteRows)
	duration := time.Since(start)
	finishMetrics(cfg, metrics, duration)
	if err != nil {
		return err
	}
	logSummary(summary, metrics, duration)

	if err := w.Finish(summary, duration); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := closeOutput(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	outwriter.LogWritten(os.Stderr, cfg)
	return nil
}

// ChurnRows runs a churn pass and returns the rows instead of printing them.
func ChurnRows(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.ChurnRow, schema.ChurnSummary, error) {
	analyzer, err := tagger.New(cfg)
	if err != nil {
		return nil, schema.ChurnSummary{}, err
	}
	rows := []schema.ChurnRow{}
	summary, err := runChurn(ctx, cfg, client, analyzer, mgr, NewMetrics(), func(batch []schema.ChurnRow) error {
		rows = append(rows, batch...)
		return nil
	})
	if err != nil {
		return nil, summary, err
	}
	return rows, summary, nil
}

// ListTags returns the tags of path at rev, through the tag cache.
func ListTags(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager, rev, path string) ([]schema.Tag, error) {
	analyzer, err := tagger.New(cfg)
	if err != nil {
		return nil, err
	}
	return listTags(ctx, cfg.RepoPath, client, NewTagProvider(analyzer, tagStoreOf(mgr), nil), rev, path)
}

func listTags(ctx context.Context, repo string, client contract.GitClient, tags attrib.TagSource, rev, path string) ([]schema.Tag, error) {
	content, err := client.ShowFile(ctx, repo, rev, path)
	if err != nil {
		return nil, fmt.Errorf("git show %s:%s: %w", rev, path, err)
	}
	list, err := tags.Tags(ctx, path, content)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Path = path
	}
	return list, nil
}

// runChurn is the pipeline shared by every entry point. emit receives rows in
// log order from a single goroutine.
func runChurn(
	ctx context.Context,
	cfg *contract.Config,
	client contract.GitClient,
	analyzer contract.TagAnalyzer,
	mgr contract.CacheManager,
	metrics *Metrics,
	emit func([]schema.ChurnRow) error,
) (schema.ChurnSummary, error) {
	render, err := tagfmt.NewRenderer(cfg.Format)
	if err != nil {
		return schema.ChurnSummary{}, err
	}

	raw, err := client.GetChurnLog(ctx, cfg.RepoPath, cfg.RangeArgs, cfg.Reverse)
	if err != nil {
		return schema.ChurnSummary{}, fmt.Errorf("git log: %w", err)
	}
	commits, err := gitlog.Parse(raw, contract.CommitMarker)
	if err != nil {
		return schema.ChurnSummary{}, fmt.Errorf("parse git log: %w", err)
	}

	aggregator := agg.New(cfg.MaxChanges, render)
	scheduled := schedule(commits, cfg, aggregator, metrics)
	contract.LogInfo("churn log read", "commits", len(commits), "scheduled", len(scheduled), "workers", cfg.Workers)

	engine := &attrib.Engine{
		Git:      client,
		Tags:     NewTagProvider(analyzer, tagStoreOf(mgr), metrics),
		Repo:     cfg.RepoPath,
		Untagged: cfg.Untagged,
		Observer: metrics,
	}

	tracker := beginTracking(runStoreOf(mgr), cfg)
	summary, err := attributeAll(ctx, cfg.Workers, scheduled, engine, aggregator, metrics, func(rows []schema.ChurnRow) error {
		tracker.record(rows)
		return emit(rows)
	})
	tracker.end(summary)
	return summary, err
}

// schedule applies the path filters and the max-changes filter, and numbers
// the surviving commits contiguously in log order.
func schedule(commits []schema.CommitRecord, cfg *contract.Config, aggregator *agg.Aggregator, metrics *Metrics) []schema.CommitRecord {
	scheduled := make([]schema.CommitRecord, 0, len(commits))
	for _, c := range commits {
		c.Files = agg.FilterFiles(c.Files, cfg.PathFilter, cfg.Excludes, cfg.SkipVendor)
		if len(c.Files) == 0 {
			continue
		}
		if !aggregator.Admit(len(c.Files)) {
			agg.LogFiltered(c.Hash, len(c.Files), cfg.MaxChanges)
			metrics.CommitFiltered()
			continue
		}
		c.Seq = len(scheduled)
		scheduled = append(scheduled, c)
	}
	return scheduled
}

// attributeAll runs one task per commit on a bounded errgroup. A single
// merging goroutine owns the aggregator and the emit callback.
func attributeAll(
	ctx context.Context,
	workers int,
	commits []schema.CommitRecord,
	engine *attrib.Engine,
	aggregator *agg.Aggregator,
	metrics *Metrics,
	emit func([]schema.ChurnRow) error,
) (schema.ChurnSummary, error) {
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan agg.CommitResult, workers)
	merged := make(chan error, 1)
	go func() {
		var mergeErr error
		for r := range results {
			if mergeErr != nil {
				continue // Drain so no worker blocks
			}
			rows := aggregator.Add(r)
			if len(rows) == 0 {
				continue
			}
			if err := emit(rows); err != nil {
				mergeErr = fmt.Errorf("write rows: %w", err)
				cancel()
			}
		}
		merged <- mergeErr
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range commits {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			acc, err := engine.AttributeCommit(gctx, c)
			if err != nil {
				return fmt.Errorf("commit %s: %w", c.Hash, err)
			}
			metrics.CommitProcessed()
			select {
			case results <- agg.CommitResult{Seq: c.Seq, Hash: c.Hash, Acc: acc}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	workErr := g.Wait()
	close(results)

	if mergeErr := <-merged; mergeErr != nil {
		return aggregator.Summary(), mergeErr
	}
	if workErr != nil {
		return aggregator.Summary(), workErr
	}
	if err := ctx.Err(); err != nil {
		return aggregator.Summary(), err
	}
	return aggregator.Summary(), nil
}

func tagStoreOf(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetTagStore()
}

func runStoreOf(mgr contract.CacheManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}

// finishMetrics records the run duration and writes the textfile if asked to.
func finishMetrics(cfg *contract.Config, metrics *Metrics, duration time.Duration) {
	metrics.ObserveDuration(duration)
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
		contract.LogWarn("failed to write metrics file", err)
	}
}

func logSummary(s schema.ChurnSummary, metrics *Metrics, duration time.Duration) {
	hits, misses := metrics.CacheCounts()
	contract.LogInfo("churn complete",
		"commits", humanize.Comma(int64(s.CommitsSeen)),
		"filtered", humanize.Comma(int64(s.CommitsFiltered)),
		"emitted", humanize.Comma(int64(s.CommitsEmitted)),
		"rows", humanize.Comma(int64(s.Rows)),
		"churn", humanize.Comma(int64(s.TotalChurn)),
		"cache_hits", humanize.Comma(int64(hits)),
		"cache_misses", humanize.Comma(int64(misses)),
		"duration", duration.Round(time.Millisecond),
	)
}
