package crawler

import (
	"fmt"
	"sync"
	"time"

	"github.com/SHSHJW/top10-daily/internal/logger"
)

// Stage names the step at which an attempt ended.
type Stage string

// Attempt stages.
const (
	StageFetch     Stage = "fetch"
	StageDecode    Stage = "decode"
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StageDone      Stage = "done"
)

// Pass identifies which round of the chain produced an attempt.
type Pass string

// Chain passes, in the order they run.
const (
	PassPrimary     Pass = "primary"
	PassDateShifted Pass = "date-shifted"
	PassSecondary   Pass = "secondary"
)

// AttemptResult records the result of one candidate fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	Candidate  string
	URL        string
	Error      string
	Stage      Stage
	Pass       Pass
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Items      int
	Success    bool
}

// AttemptLog is an append-only record of everything the chain tried.
type AttemptLog struct {
	entries []AttemptResult
	mu      sync.Mutex
}

// NewAttemptLog creates an empty log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

// Record appends a result.
func (l *AttemptLog) Record(r AttemptResult) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, r)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded results in order.
func (l *AttemptLog) Entries() []AttemptResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AttemptResult, len(l.entries))
	copy(out, l.entries)

	return out
}

// ForCandidate returns the results recorded for one candidate.
func (l *AttemptLog) ForCandidate(name string) []AttemptResult {
	var out []AttemptResult

	for _, r := range l.Entries() {
		if r.Candidate == name {
			out = append(out, r)
		}
	}

	return out
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	CandidateAttempts    map[string]int
	TotalCandidates      int
	SuccessfulCandidates int
	FailedCandidates     int
	TotalAttempts        int
	SuccessfulAttempts   int
	FailedAttempts       int
}

// Stats summarizes the log.
func (l *AttemptLog) Stats() AttemptStats {
	stats := AttemptStats{CandidateAttempts: make(map[string]int)}

	succeeded := make(map[string]bool)

	for _, r := range l.Entries() {
		stats.CandidateAttempts[r.Candidate]++
		stats.TotalAttempts++

		if r.Success {
			stats.SuccessfulAttempts++
			succeeded[r.Candidate] = true
		} else {
			stats.FailedAttempts++
		}
	}

	stats.TotalCandidates = len(stats.CandidateAttempts)
	stats.SuccessfulCandidates = len(succeeded)
	stats.FailedCandidates = stats.TotalCandidates - stats.SuccessfulCandidates

	return stats
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"Candidates: %d tried, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalCandidates,
		s.SuccessfulCandidates,
		s.FailedCandidates,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogSummary logs a summary of fetch attempts using the provided logger.
func (l *AttemptLog) LogSummary(log *logger.Logger) {
	log.Info("📊 Fetch Attempt Summary:")

	for i, r := range l.Entries() {
		status := "✅ " + fmt.Sprintf("%d items", r.Items)
		if !r.Success {
			status = fmt.Sprintf("❌ %s: %s", r.Stage, r.Error)
		}

		log.Info(fmt.Sprintf("%d. [%s] %s attempt %d: %s (%.2fs)",
			i+1, r.Pass, r.Candidate, r.Attempt, status, r.Duration.Seconds()))
	}

	log.Info(fmt.Sprintf("Overall: %s", l.Stats()))
}
