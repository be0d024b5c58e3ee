package core

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics counts what one churn run did. Each run owns its registry so
// repeated runs in one process never collide.
type Metrics struct {
	registry *prometheus.Registry
	commits  *prometheus.CounterVec
	files    *prometheus.CounterVec
	events   *prometheus.CounterVec
	cache    *prometheus.CounterVec
	duration prometheus.Gauge
}

// NewMetrics registers the run collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagchurn_commits_total",
			Help: "Commits seen by the churn run, by status.",
		}, []string{"status"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagchurn_files_total",
			Help: "Changed files of scheduled commits, by status.",
		}, []string{"status"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagchurn_events_total",
			Help: "Changed lines attributed, by kind.",
		}, []string{"kind"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagchurn_tag_cache_requests_total",
			Help: "Tag cache lookups, by result.",
		}, []string{"result"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tagchurn_run_duration_seconds",
			Help: "Wall time of the churn run.",
		}),
	}
	m.registry.MustRegister(m.commits, m.files, m.events, m.cache, m.duration)
	return m
}

// CommitProcessed counts a commit handed to the worker pool.
func (m *Metrics) CommitProcessed() { m.commits.WithLabelValues("processed").Inc() }

// CommitFiltered counts a commit rejected by max-changes.
func (m *Metrics) CommitFiltered() { m.commits.WithLabelValues("filtered").Inc() }

// FileAttributed implements attrib.Observer.
func (m *Metrics) FileAttributed(_ string, added, removed int) {
	m.files.WithLabelValues("attributed").Inc()
	m.events.WithLabelValues("added").Add(float64(added))
	m.events.WithLabelValues("removed").Add(float64(removed))
}

// FileSkipped implements attrib.Observer.
func (m *Metrics) FileSkipped(_ string, _ error) {
	m.files.WithLabelValues("skipped").Inc()
}

// CacheHit counts a tag list served from the cache.
func (m *Metrics) CacheHit() { m.cache.WithLabelValues("hit").Inc() }

// CacheMiss counts a tag list computed by the analyzer.
func (m *Metrics) CacheMiss() { m.cache.WithLabelValues("miss").Inc() }

// ObserveDuration records the run wall time.
func (m *Metrics) ObserveDuration(d time.Duration) { m.duration.Set(d.Seconds()) }

// CacheCounts returns the hit and miss counters.
func (m *Metrics) CacheCounts() (hits, misses int) {
	return counterValue(m.cache.WithLabelValues("hit")), counterValue(m.cache.WithLabelValues("miss"))
}

func counterValue(c prometheus.Counter) int {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return int(pb.GetCounter().GetValue())
}

// WriteFile writes every metric to path in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
