// Package metrics records run and fetch-attempt metrics and exports them
// in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/SHSHJW/top10-daily/internal/crawler"
)

const (
	// MetricsNamespace is the namespace for all updater metrics.
	MetricsNamespace = "top10"

	// MetricsSubsystem is the subsystem for updater metrics.
	MetricsSubsystem = "updater"
)

// Recorder holds all Prometheus metrics for one updater process.
type Recorder struct {
	registry *prometheus.Registry

	// Attempt metrics
	AttemptsTotal          *prometheus.CounterVec
	AttemptDurationSeconds *prometheus.HistogramVec

	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds *prometheus.GaugeVec
	LastRunTimestamp   *prometheus.GaugeVec
	LastFreshTimestamp *prometheus.GaugeVec
	SnapshotItems      *prometheus.GaugeVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{registry: reg}

	r.initAttemptMetrics(factory)
	r.initRunMetrics(factory)

	return r
}

func (r *Recorder) initAttemptMetrics(factory promauto.Factory) {
	r.AttemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "attempts_total",
			Help:      "Total number of candidate fetch attempts",
		},
		[]string{"job", "candidate", "stage", "result"},
	)

	r.AttemptDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of candidate fetch attempts in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"job", "candidate"},
	)
}

func (r *Recorder) initRunMetrics(factory promauto.Factory) {
	r.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Total number of job runs by outcome",
		},
		[]string{"job", "outcome"},
	)

	r.RunDurationSeconds = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		},
		[]string{"job"},
	)

	r.LastRunTimestamp = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last run",
		},
		[]string{"job"},
	)

	r.LastFreshTimestamp = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "last_fresh_timestamp_seconds",
			Help:      "Unix time of the last run that wrote fresh items",
		},
		[]string{"job"},
	)

	r.SnapshotItems = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "snapshot_items",
			Help:      "Number of items in the written snapshot",
		},
		[]string{"job"},
	)
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ForJob returns an attempt observer that labels attempts with the job.
func (r *Recorder) ForJob(job string) crawler.Observer {
	return jobObserver{recorder: r, job: job}
}

type jobObserver struct {
	recorder *Recorder
	job      string
}

func (o jobObserver) ObserveAttempt(a crawler.AttemptResult) {
	result := "failure"
	if a.Success {
		result = "success"
	}

	o.recorder.AttemptsTotal.WithLabelValues(o.job, a.Candidate, string(a.Stage), result).Inc()
	o.recorder.AttemptDurationSeconds.WithLabelValues(o.job, a.Candidate).Observe(a.Duration.Seconds())
}

// ObserveRun records the outcome of one job run.
func (r *Recorder) ObserveRun(job, outcome string, items int, at time.Time, fresh bool, d time.Duration) {
	r.RunsTotal.WithLabelValues(job, outcome).Inc()
	r.RunDurationSeconds.WithLabelValues(job).Set(d.Seconds())
	r.LastRunTimestamp.WithLabelValues(job).Set(float64(at.Unix()))
	r.SnapshotItems.WithLabelValues(job).Set(float64(items))

	if fresh {
		r.LastFreshTimestamp.WithLabelValues(job).Set(float64(at.Unix()))
	}
}

// WriteTextfile writes every metric to path for the node-exporter
// textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
