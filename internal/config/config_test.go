package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
updater:
  retry:
    max_attempts: 3
    initial_delay_ms: 100
    max_delay_ms: 5000
    backoff_multiplier: 2.0
    timeout_sec: 30
  logging:
    level: "debug"
    format: "json"
  jobs:
    - name: "trends-kr"
      output: "./data/trends-kr.json"
      enabled: true
      candidates:
        - name: "api"
          url: "https://example.com/api?ed={date}"
          format: "json_api"
          item_keys: ["trendingSearches"]
          cache_bust: true
          headers:
            Cookie: "CONSENT=YES+"
        - name: "rss"
          url: "https://example.com/rss"
          format: "rss"
          fields:
            traffic: ["ht:approx_traffic"]
      secondary:
        - name: "keyed"
          url: "https://example.com/search?key={api_key}"
          format: "json_api"
          api_key_env: "TOP10_TEST_SECONDARY_KEY"
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Updater.Jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(cfg.Updater.Jobs))
	}

	job := cfg.Updater.Jobs[0]
	if job.Name != "trends-kr" {
		t.Errorf("Expected job name 'trends-kr', got '%s'", job.Name)
	}

	if job.TimeoutSec != DefaultJobTimeoutSec {
		t.Errorf("Expected default timeout %d, got %d", DefaultJobTimeoutSec, job.TimeoutSec)
	}

	if job.Timezone != DefaultTimezone {
		t.Errorf("Expected default timezone %s, got %s", DefaultTimezone, job.Timezone)
	}

	if cfg.Advanced.BufferSizeKb != DefaultBufferSizeKb {
		t.Errorf("Expected default buffer %d, got %d", DefaultBufferSizeKb, cfg.Advanced.BufferSizeKb)
	}

	if got := job.Candidates[1].Fields.Traffic; len(got) != 1 || got[0] != "ht:approx_traffic" {
		t.Errorf("Expected traffic field override, got %v", got)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func validJob() JobConfig {
	return JobConfig{
		Name:    "job",
		Output:  "out.json",
		Enabled: true,
		Candidates: []CandidateConfig{
			{Name: "c", URL: "https://example.com", Format: "rss"},
		},
	}
}

func validConfig() *Config {
	cfg := &Config{
		Updater: UpdaterConfig{
			Jobs: []JobConfig{validJob()},
		},
	}
	cfg.applyDefaults()

	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate func(*Config)
		want   error
		name   string
	}{
		{name: "valid", mutate: func(*Config) {}, want: nil},
		{name: "no jobs", mutate: func(c *Config) { c.Updater.Jobs = nil }, want: ErrNoJobs},
		{name: "no enabled jobs", mutate: func(c *Config) { c.Updater.Jobs[0].Enabled = false }, want: ErrNoEnabledJobs},
		{name: "missing name", mutate: func(c *Config) { c.Updater.Jobs[0].Name = "" }, want: ErrJobMissingName},
		{name: "missing output", mutate: func(c *Config) { c.Updater.Jobs[0].Output = "" }, want: ErrJobMissingOutput},
		{name: "no candidates", mutate: func(c *Config) { c.Updater.Jobs[0].Candidates = nil }, want: ErrJobNoCandidates},
		{
			name:   "duplicate job",
			mutate: func(c *Config) { c.Updater.Jobs = append(c.Updater.Jobs, validJob()) },
			want:   ErrDuplicateJobName,
		},
		{name: "bad timezone", mutate: func(c *Config) { c.Updater.Jobs[0].Timezone = "Mars/Olympus" }, want: ErrInvalidTimezone},
		{name: "candidate url", mutate: func(c *Config) { c.Updater.Jobs[0].Candidates[0].URL = "" }, want: ErrCandidateMissingURL},
		{name: "candidate format", mutate: func(c *Config) { c.Updater.Jobs[0].Candidates[0].Format = "csv" }, want: ErrCandidateInvalidFormat},
		{
			name: "secondary without key env",
			mutate: func(c *Config) {
				c.Updater.Jobs[0].Secondary = []CandidateConfig{{Name: "s", URL: "https://x", Format: "json_api"}}
			},
			want: ErrSecondaryMissingKeyEnv,
		},
		{name: "max attempts", mutate: func(c *Config) { c.Updater.Retry.MaxAttempts = 0 }, want: ErrInvalidMaxAttempts},
		{name: "multiplier", mutate: func(c *Config) { c.Updater.Retry.BackoffMultiplier = 0.5 }, want: ErrInvalidBackoffMultiplier},
		{name: "max delay", mutate: func(c *Config) { c.Updater.Retry.MaxDelayMs = 1 }, want: ErrInvalidMaxDelay},
		{name: "timeout", mutate: func(c *Config) { c.Updater.Retry.TimeoutSec = 0 }, want: ErrInvalidTimeout},
		{name: "log level", mutate: func(c *Config) { c.Updater.Logging.Level = "trace" }, want: ErrInvalidLogLevel},
		{name: "log format", mutate: func(c *Config) { c.Updater.Logging.Format = "xml" }, want: ErrInvalidLogFormat},
		{name: "rate limit", mutate: func(c *Config) { c.Updater.RateLimit.RequestsPerSecond = -1 }, want: ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}

				return
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}

	if len(cfg.GetEnabledJobs()) != 2 {
		t.Errorf("Expected 2 enabled jobs, got %d", len(cfg.GetEnabledJobs()))
	}

	trends, ok := cfg.GetJob("trends-kr")
	if !ok {
		t.Fatal("trends-kr job missing")
	}

	if !trends.PrimaryCandidates()[0].DateShiftable() {
		t.Error("Expected the dailytrends candidate to be date-shiftable")
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{InitialDelayMs: 100, MaxDelayMs: 1000, BackoffMultiplier: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	prev := time.Duration(0)

	for _, tt := range tests {
		got := rp.GetRetryDelay(tt.attempt)
		if got != tt.want {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}

		if got < prev {
			t.Errorf("GetRetryDelay(%d) = %v decreased from %v", tt.attempt, got, prev)
		}

		prev = got
	}
}

func TestJobConfig_SecondaryCandidates(t *testing.T) {
	job := validJob()
	job.Secondary = []CandidateConfig{
		{Name: "keyed", URL: "https://x/?k={api_key}", Format: "json_api", APIKeyEnv: "TOP10_TEST_SECONDARY_KEY"},
	}

	t.Setenv("TOP10_TEST_SECONDARY_KEY", "")

	if got := job.SecondaryCandidates(); len(got) != 0 {
		t.Fatalf("Expected no secondary candidates without key, got %d", len(got))
	}

	t.Setenv("TOP10_TEST_SECONDARY_KEY", "secret")

	got := job.SecondaryCandidates()
	if len(got) != 1 {
		t.Fatalf("Expected 1 secondary candidate, got %d", len(got))
	}

	if got[0].APIKey != "secret" || got[0].Format != models.FormatJSONAPI {
		t.Errorf("Unexpected secondary candidate: %+v", got[0])
	}
}

func TestJobConfig_PrimaryCandidatesSkipsDisabled(t *testing.T) {
	job := validJob()
	job.Candidates = append(job.Candidates, CandidateConfig{Name: "off", URL: "https://y", Format: "atom", Disabled: true})

	if got := job.PrimaryCandidates(); len(got) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(got))
	}
}

func TestLoadEnv_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")

	if err := os.WriteFile(envPath, []byte("TOP10_TEST_FROM_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	t.Setenv("TOP10_TEST_FROM_DOTENV", "")
	os.Unsetenv("TOP10_TEST_FROM_DOTENV")

	if err := LoadEnv(envPath); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	if got := os.Getenv("TOP10_TEST_FROM_DOTENV"); got != "loaded" {
		t.Errorf("Expected loaded, got %q", got)
	}

	if err := LoadEnv(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("Expected error for missing explicit env file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updater.yaml")

	if err := Default().SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	trends, ok := cfg.GetJob("trends-kr")
	if !ok {
		t.Fatal("trends-kr job missing after round trip")
	}

	if len(trends.Candidates) != len(TrendsJob().Candidates) || len(trends.Secondary) != 1 {
		t.Errorf("Unexpected candidate counts: %d primary, %d secondary", len(trends.Candidates), len(trends.Secondary))
	}

	if trends.Secondary[0].Fields.Title[0] != "query" {
		t.Errorf("Field overrides lost: %+v", trends.Secondary[0].Fields)
	}
}
