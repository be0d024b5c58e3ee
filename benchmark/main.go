// Package main times the tagchurn CLI against real repositories.
// Each churn range runs once without a tag cache and several times with the
// SQLite cache. The first cached run counts as cold and the rest as warm.
//
// Prerequisites:
// - tagchurn and ctags available in PATH
// - Test repositories cloned under the given base directory
//
// Usage: go run benchmark/main.go [repo-base-dir]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the timings of one repository range.
type BenchmarkResult struct {
	Repository  string
	Range       string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase    string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	RepoRanges  map[string][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:    os.Args[1],
		Timeout:     10 * time.Minute,
		Workers:     14,
		NoCacheRuns: 1,
		CacheRuns:   4,
		RepoRanges: map[string][]string{
			"csv-parser": {"-n", "200"},
			"fd":         {"v9.0.0..v10.0.0"},
			"git":        {"v2.51.0..v2.52.0-rc0"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	if output, err := exec.Command("tagchurn", "cache", "clear").CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}

	results := runBenchmarks(config)
	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	printSummary(results)
}

// checkPrerequisites verifies that binaries and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	for _, bin := range []string{"tagchurn", "ctags"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s binary not found in PATH", bin)
		}
	}
	for repo := range config.RepoRanges {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult
	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers\n",
		len(config.RepoRanges), config.Timeout, config.Workers)

	for repo, rangeArgs := range config.RepoRanges {
		repoPath := filepath.Join(config.RepoBase, repo)
		fmt.Printf("Benchmarking %s %v\n", repo, rangeArgs)

		noCache := timeRuns(config, repoPath, rangeArgs, "none", config.NoCacheRuns)
		cached := timeRuns(config, repoPath, rangeArgs, "sqlite", config.CacheRuns)

		result := BenchmarkResult{
			Repository:  repo,
			Range:       fmt.Sprint(rangeArgs),
			NoCacheTime: average(noCache),
			ColdTime:    "TIMEOUT",
			WarmTime:    "TIMEOUT",
		}
		if len(cached) > 0 {
			result.ColdTime = fmt.Sprintf("%.3fs", cached[0])
			result.WarmTime = average(cached[1:])
		}
		fmt.Printf("  No-cache: %s, Cold: %s, Warm: %s\n", result.NoCacheTime, result.ColdTime, result.WarmTime)
		results = append(results, result)
	}
	return results
}

// timeRuns returns the duration in seconds of every successful run.
func timeRuns(config BenchmarkConfig, repoPath string, rangeArgs []string, cacheBackend string, numRuns int) []float64 {
	args := []string{"churn", "--cache-backend", cacheBackend, "--workers", fmt.Sprint(config.Workers), "--output-file", os.DevNull, "--"}
	args = append(args, rangeArgs...)

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "tagchurn", args...)
		cmd.Dir = repoPath
		start := time.Now()
		err := cmd.Run()
		cancel()
		if err == nil {
			times = append(times, time.Since(start).Seconds())
		}
	}
	return times
}

func average(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	filename := fmt.Sprintf("/tmp/tagchurn_benchmark_%s.csv", time.Now().Format("20060102_150405"))
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"repo", "range", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Repository, r.Range, r.NoCacheTime, r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-12s %-24s No-cache: %s, Cold: %s, Warm: %s\n", r.Repository, r.Range, r.NoCacheTime, r.ColdTime, r.WarmTime)
	}
}
