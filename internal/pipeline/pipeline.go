// Package pipeline runs one updater job end to end: resolve the source
// chain under a deadline, commit the snapshot, then record diagnostics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SHSHJW/top10-daily/internal/config"
	"github.com/SHSHJW/top10-daily/internal/crawler"
	"github.com/SHSHJW/top10-daily/internal/history"
	"github.com/SHSHJW/top10-daily/internal/logger"
	"github.com/SHSHJW/top10-daily/internal/metrics"
	"github.com/SHSHJW/top10-daily/internal/snapshot"
	"github.com/SHSHJW/top10-daily/pkg/utils"
)

// Outcome summarizes what a run did to the snapshot.
type Outcome string

// Run outcomes.
const (
	OutcomeFresh     Outcome = "fresh"     // new items written
	OutcomePreserved Outcome = "preserved" // previous items kept, timestamp bumped
	OutcomeEmpty     Outcome = "empty"     // nothing found and nothing to keep
	OutcomeFailed    Outcome = "failed"    // snapshot could not be written
)

// Deps are the collaborators of a run. Metrics, History and DebugDir are
// optional.
type Deps struct {
	Fetcher  crawler.Doer
	Log      *logger.Logger
	Metrics  *metrics.Recorder
	History  *history.Store
	Now      func() time.Time
	DebugDir string
	Policy   crawler.RetryPolicy
}

// DepsFromConfig builds the default dependencies for cfg.
func DepsFromConfig(cfg *config.Config, log *logger.Logger) Deps {
	return Deps{
		Fetcher:  crawler.NewFetcherWithConfig(cfg),
		Policy:   crawler.PolicyFromConfig(cfg.Updater.Retry),
		Log:      log,
		DebugDir: cfg.Updater.DebugDir,
	}
}

// Report describes one finished run.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	RunID      string
	Job        string
	Output     string
	Candidate  string
	Pass       crawler.Pass
	Outcome    Outcome
	Hash       string
	LastError  string
	Attempts   crawler.AttemptStats
	Items      int
	Changed    bool
}

// Duration returns the wall-clock length of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run executes job once. Upstream failures degrade to a preserved or
// empty snapshot; the returned error is non-nil only when the snapshot
// could not be written, and is then a *snapshot.PersistenceError.
func Run(ctx context.Context, job config.JobConfig, deps Deps) (*Report, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Job:       job.Name,
		Output:    job.Output,
		StartedAt: now(),
	}

	log = log.With("run_id", report.RunID, "job", job.Name)
	log.Info("🚀 Starting job", "output", job.Output, "timeout", job.GetTimeout())

	chainOpts := []crawler.ChainOption{crawler.WithLogger(log), crawler.WithClock(now)}
	if deps.Metrics != nil {
		chainOpts = append(chainOpts, crawler.WithObserver(deps.Metrics.ForJob(job.Name)))
	}

	secondary := job.SecondaryCandidates()
	if skipped := len(job.Secondary) - len(secondary); skipped > 0 {
		log.Debug("Secondary candidates skipped, API key not set", "skipped", skipped)
	}

	runCtx, cancel := context.WithTimeout(ctx, job.GetTimeout())
	res := crawler.NewChain(deps.Fetcher, deps.Policy, chainOpts...).Resolve(runCtx, crawler.Plan{
		Location:   job.Location(),
		Candidates: job.PrimaryCandidates(),
		Secondary:  secondary,
	})
	cancel()

	res.Attempts.LogSummary(log)

	report.Candidate = res.Candidate
	report.Pass = res.Pass
	report.Attempts = res.Attempts.Stats()

	if res.LastError != nil && !res.Found() {
		report.LastError = res.LastError.Error()
	}

	store := snapshot.NewStore(job.Output,
		snapshot.WithClock(now),
		snapshot.WithBackup(job.CreateBackup),
		snapshot.WithLogger(log),
	)

	commit, commitErr := store.Commit(res.Items)

	switch {
	case commitErr != nil:
		report.Outcome = OutcomeFailed
		report.LastError = commitErr.Error()
		log.Error("❌ Snapshot write failed", "error", commitErr)
	case res.Found():
		report.Outcome = OutcomeFresh
	case commit.Preserved:
		report.Outcome = OutcomePreserved
		log.Warn("⚠️ No fresh items, kept previous snapshot", "items", len(commit.Snapshot.Items))
	default:
		report.Outcome = OutcomeEmpty
		log.Warn("⚠️ No items and no previous snapshot")
	}

	if commit != nil {
		report.Items = len(commit.Snapshot.Items)
		report.Changed = commit.Changed
		report.Hash = commit.Hash
	}

	if !res.Found() && deps.DebugDir != "" {
		if err := writeDebugDump(deps.DebugDir, job.Name, res); err != nil {
			log.Warn("⚠️ Could not write debug dump", "error", err)
		}
	}

	report.FinishedAt = now()

	record(ctx, log, deps, report)

	log.Info("🏁 Job finished",
		"outcome", report.Outcome,
		"candidate", report.Candidate,
		"pass", report.Pass,
		"items", report.Items,
		"changed", report.Changed,
		"duration", report.Duration().Round(time.Millisecond),
	)

	if commitErr != nil {
		return report, commitErr
	}

	return report, nil
}

// RunAll runs jobs sequentially. Every job runs even if an earlier one
// fails to persist; the persistence errors are joined.
func RunAll(ctx context.Context, jobs []config.JobConfig, deps Deps) ([]*Report, error) {
	reports := make([]*Report, 0, len(jobs))

	var errs []error

	for _, job := range jobs {
		report, err := Run(ctx, job, deps)
		reports = append(reports, report)

		if err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
		}
	}

	return reports, errors.Join(errs...)
}

const maxHistoryErrorLen = 500

func record(ctx context.Context, log *logger.Logger, deps Deps, r *Report) {
	if deps.Metrics != nil {
		deps.Metrics.ObserveRun(r.Job, string(r.Outcome), r.Items, r.FinishedAt, r.Outcome == OutcomeFresh, r.Duration())
	}

	if deps.History == nil {
		return
	}

	err := deps.History.Record(ctx, history.Run{
		ID:         r.RunID,
		Job:        r.Job,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Outcome:    string(r.Outcome),
		Candidate:  r.Candidate,
		Pass:       string(r.Pass),
		Items:      r.Items,
		Attempts:   r.Attempts.TotalAttempts,
		Changed:    r.Changed,
		Hash:       r.Hash,
		Error:      utils.TruncateString(r.LastError, maxHistoryErrorLen),
	})
	if err != nil {
		log.Warn("⚠️ Could not record run history", "error", err)
	}
}

// DebugPaths returns the raw-body and error-summary dump paths for a job.
func DebugPaths(dir, job string) (string, string) {
	return filepath.Join(dir, job+"-raw.txt"), filepath.Join(dir, job+"-error.txt")
}

func writeDebugDump(dir, job string, res *crawler.Resolution) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create debug directory: %w", err)
	}

	rawPath, errPath := DebugPaths(dir, job)

	if err := os.WriteFile(rawPath, []byte(res.LastBody), 0o644); err != nil {
		return fmt.Errorf("write raw dump: %w", err)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "job: %s\n", job)

	if res.LastError != nil {
		fmt.Fprintf(&sb, "last error: %v\n", res.LastError)
	}

	fmt.Fprintf(&sb, "%s\n\n", res.Attempts.Stats())

	for _, a := range res.Attempts.Entries() {
		status := "ok"
		if !a.Success {
			status = a.Error
		}

		fmt.Fprintf(&sb, "[%s] %s #%d %s status=%d %s: %s\n",
			a.Pass, a.Candidate, a.Attempt, a.URL, a.StatusCode, a.Stage, status)
	}

	if err := os.WriteFile(errPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write error dump: %w", err)
	}

	return nil
}
