package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHSHJW/top10-daily/internal/config"
	"github.com/SHSHJW/top10-daily/internal/crawler"
	"github.com/SHSHJW/top10-daily/internal/history"
	"github.com/SHSHJW/top10-daily/internal/metrics"
	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/internal/snapshot"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ht="https://trends.google.com/trending/rss"><channel>
<item><title>alpha</title><ht:approx_traffic>100K+</ht:approx_traffic></item>
<item><title>beta</title><ht:approx_traffic>50K+</ht:approx_traffic></item>
</channel></rss>`

type upstream struct {
	server *httptest.Server
	failed atomic.Bool
	hits   atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()

	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)

		if u.failed.Load() {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		switch r.URL.Path {
		case "/api":
			w.Write([]byte(")]}',\n<html>blocked</html>"))
		case "/rss":
			w.Write([]byte(rssBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.server.Close)

	return u
}

func testJob(u *upstream, output string) config.JobConfig {
	return config.JobConfig{
		Name:       "trends-test",
		Output:     output,
		Enabled:    true,
		TimeoutSec: 30,
		Timezone:   "Asia/Seoul",
		Candidates: []config.CandidateConfig{
			{Name: "api", URL: u.server.URL + "/api?ed={date}", Format: "json_api", ItemKeys: []string{"trendingSearches"}},
			{Name: "rss", URL: u.server.URL + "/rss", Format: "rss"},
		},
	}
}

func testDeps(t *testing.T, at *time.Time) Deps {
	t.Helper()

	return Deps{
		Fetcher: crawler.NewFetcher(crawler.FetcherOptions{Timeout: 5 * time.Second}),
		Policy: crawler.RetryPolicy{
			MaxAttempts: 3,
			Backoff:     func(int) time.Duration { return time.Millisecond },
			IsRetryable: crawler.IsRetryable,
		},
		Now: func() time.Time { return *at },
	}
}

func readSnapshot(t *testing.T, path string) *models.Snapshot {
	t.Helper()

	snap, err := snapshot.NewStore(path).Read()
	require.NoError(t, err)
	require.NotNil(t, snap)

	return snap
}

func TestRun_FreshThenPreserved(t *testing.T) {
	u := newUpstream(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "trends.json")

	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	deps := testDeps(t, &now)
	deps.Metrics = metrics.NewRecorder()
	deps.DebugDir = filepath.Join(dir, "debug")

	hist, err := history.Open(history.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	deps.History = hist

	report, err := Run(context.Background(), testJob(u, output), deps)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFresh, report.Outcome)
	assert.Equal(t, "rss", report.Candidate)
	assert.Equal(t, crawler.PassPrimary, report.Pass)
	assert.True(t, report.Changed)
	assert.NotEmpty(t, report.RunID)

	first := readSnapshot(t, output)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "alpha", first.Items[0].Title)
	assert.Equal(t, "100K+", first.Items[0].Traffic)

	// Upstream goes down: every candidate returns 500 three times.
	u.failed.Store(true)
	u.hits.Store(0)
	now = now.Add(time.Hour)

	report, err = Run(context.Background(), testJob(u, output), deps)
	require.NoError(t, err)

	assert.Equal(t, OutcomePreserved, report.Outcome)
	assert.False(t, report.Changed)
	assert.NotEmpty(t, report.LastError)
	// Two primary candidates plus the date-shifted api retry, three attempts each.
	assert.EqualValues(t, 9, u.hits.Load())

	second := readSnapshot(t, output)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, "2024-03-15T02:00:00Z", second.UpdatedAt)

	rawPath, errPath := DebugPaths(deps.DebugDir, "trends-test")
	assert.FileExists(t, rawPath)

	dump, err := os.ReadFile(errPath)
	require.NoError(t, err)
	assert.Contains(t, string(dump), "status=500")

	assert.InDelta(t, 1, testutil.ToFloat64(deps.Metrics.RunsTotal.WithLabelValues("trends-test", "preserved")), 0)

	runs, err := hist.Recent(context.Background(), "trends-test", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "preserved", runs[0].Outcome)
	assert.Equal(t, "fresh", runs[1].Outcome)
}

func TestRun_EmptyWithoutPrevious(t *testing.T) {
	u := newUpstream(t)
	u.failed.Store(true)

	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	output := filepath.Join(t.TempDir(), "trends.json")

	report, err := Run(context.Background(), testJob(u, output), testDeps(t, &now))
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Empty(t, readSnapshot(t, output).Items)
}

func TestRun_PersistenceErrorIsReturned(t *testing.T) {
	u := newUpstream(t)

	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	now := time.Now()

	report, err := Run(context.Background(), testJob(u, filepath.Join(blocker, "out.json")), testDeps(t, &now))

	var persistErr *snapshot.PersistenceError
	require.True(t, errors.As(err, &persistErr), "expected PersistenceError, got %v", err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestRun_DeadlineStopsChain(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	job := config.JobConfig{
		Name:       "slow",
		Output:     filepath.Join(t.TempDir(), "slow.json"),
		TimeoutSec: 1,
		Candidates: []config.CandidateConfig{
			{Name: "a", URL: slow.URL + "/a", Format: "rss"},
			{Name: "b", URL: slow.URL + "/b", Format: "rss"},
		},
	}

	now := time.Now()
	start := time.Now()

	report, err := Run(context.Background(), job, testDeps(t, &now))
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmpty, report.Outcome)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunAll_ContinuesAfterFailure(t *testing.T) {
	u := newUpstream(t)
	dir := t.TempDir()

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	bad := testJob(u, filepath.Join(blocker, "out.json"))
	good := testJob(u, filepath.Join(dir, "good.json"))
	good.Name = "good"

	now := time.Now()

	reports, err := RunAll(context.Background(), []config.JobConfig{bad, good}, testDeps(t, &now))
	require.Error(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, OutcomeFailed, reports[0].Outcome)
	assert.Equal(t, OutcomeFresh, reports[1].Outcome)
}
