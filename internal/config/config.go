// Package config provides configuration management for the snapshot updater.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database

	"gopkg.in/yaml.v3"

	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/pkg/utils"
)

// Configuration validation errors.
var (
	ErrNoJobs                   = errors.New("at least one job is required")
	ErrNoEnabledJobs            = errors.New("at least one job must be enabled")
	ErrJobMissingName           = errors.New("job name is required")
	ErrDuplicateJobName         = errors.New("job name must be unique")
	ErrJobMissingOutput         = errors.New("job output path is required")
	ErrJobNoCandidates          = errors.New("job needs at least one candidate")
	ErrInvalidJobTimeout        = errors.New("job timeout_sec must be non-negative")
	ErrInvalidTimezone          = errors.New("job timezone is not a known location")
	ErrCandidateMissingName     = errors.New("candidate name is required")
	ErrCandidateMissingURL      = errors.New("candidate url is required")
	ErrCandidateInvalidFormat   = errors.New("candidate format must be one of: json_api, rss, atom, json_in_html")
	ErrSecondaryMissingKeyEnv   = errors.New("secondary candidate needs api_key_env")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidMaxDelay          = errors.New("retry.max_delay_ms cannot be below retry.initial_delay_ms")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidRateLimit         = errors.New("rate_limit.requests_per_second must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Default values applied to omitted settings.
const (
	DefaultJobTimeoutSec = 90
	DefaultBufferSizeKb  = 4096
	DefaultMaxRedirects  = 10
	DefaultTimezone      = "Asia/Seoul"
)

// Config represents the complete updater configuration.
type Config struct {
	Updater  UpdaterConfig  `yaml:"updater"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// UpdaterConfig contains pipeline-wide settings and the job list.
type UpdaterConfig struct {
	DebugDir  string          `yaml:"debug_dir"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
	Jobs      []JobConfig     `yaml:"jobs"`
	Retry     RetryPolicy     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// JobConfig is the entry configuration of one pipeline run: where to
// write, which candidates to try, and how long the whole run may take.
type JobConfig struct {
	Name         string            `yaml:"name"`
	Output       string            `yaml:"output"`
	Timezone     string            `yaml:"timezone"`
	Candidates   []CandidateConfig `yaml:"candidates"`
	Secondary    []CandidateConfig `yaml:"secondary"`
	TimeoutSec   int               `yaml:"timeout_sec"`
	Enabled      bool              `yaml:"enabled"`
	CreateBackup bool              `yaml:"create_backup"`
}

// CandidateConfig describes one upstream endpoint.
type CandidateConfig struct {
	Headers        map[string]string `yaml:"headers"`
	Fields         models.FieldPaths `yaml:"fields"`
	Name           string            `yaml:"name"`
	URL            string            `yaml:"url"`
	Format         string            `yaml:"format"`
	ItemPath       string            `yaml:"item_path"`
	ScriptID       string            `yaml:"script_id"`
	APIKeyEnv      string            `yaml:"api_key_env"`
	ItemKeys       []string          `yaml:"item_keys"`
	DateOffsetDays int               `yaml:"date_offset_days"`
	CacheBust      bool              `yaml:"cache_bust"`
	Disabled       bool              `yaml:"disabled"`
}

// RetryPolicy defines retry behavior for a single candidate.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// RateLimitConfig paces outgoing requests. Zero disables pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the node-exporter textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// HistoryConfig controls the sqlite run ledger.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// AdvancedConfig contains transport tuning.
type AdvancedConfig struct {
	BufferSizeKb int `yaml:"buffer_size_kb"`
	MaxRedirects int `yaml:"max_redirects"`
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes, applies defaults and validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	u := &c.Updater

	if u.Retry == (RetryPolicy{}) {
		u.Retry = DefaultRetryPolicy()
	}

	if u.Logging.Level == "" {
		u.Logging.Level = "info"
	}

	if u.Logging.Format == "" {
		u.Logging.Format = "text"
	}

	if u.RateLimit.RequestsPerSecond > 0 && u.RateLimit.Burst < 1 {
		u.RateLimit.Burst = 1
	}

	for i := range u.Jobs {
		if u.Jobs[i].TimeoutSec == 0 {
			u.Jobs[i].TimeoutSec = DefaultJobTimeoutSec
		}

		if u.Jobs[i].Timezone == "" {
			u.Jobs[i].Timezone = DefaultTimezone
		}
	}

	if c.Advanced.BufferSizeKb <= 0 {
		c.Advanced.BufferSizeKb = DefaultBufferSizeKb
	}

	if c.Advanced.MaxRedirects <= 0 {
		c.Advanced.MaxRedirects = DefaultMaxRedirects
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Updater.Jobs) == 0 {
		return ErrNoJobs
	}

	seen := make(map[string]bool, len(c.Updater.Jobs))
	enabledCount := 0

	for i := range c.Updater.Jobs {
		job := &c.Updater.Jobs[i]

		if err := job.validate(); err != nil {
			return fmt.Errorf("%w: job[%d]", err, i)
		}

		if seen[job.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateJobName, job.Name)
		}

		seen[job.Name] = true

		if job.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledJobs
	}

	if err := c.Updater.Retry.validate(); err != nil {
		return err
	}

	if c.Updater.RateLimit.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Updater.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	if f := strings.ToLower(c.Updater.Logging.Format); f != "text" && f != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (j *JobConfig) validate() error {
	if j.Name == "" {
		return ErrJobMissingName
	}

	if j.Output == "" {
		return ErrJobMissingOutput
	}

	if len(j.Candidates) == 0 {
		return ErrJobNoCandidates
	}

	if j.TimeoutSec < 0 {
		return ErrInvalidJobTimeout
	}

	if j.Timezone != "" {
		if _, err := time.LoadLocation(j.Timezone); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTimezone, j.Timezone)
		}
	}

	for i := range j.Candidates {
		if err := j.Candidates[i].validate(); err != nil {
			return fmt.Errorf("%w: candidate[%d]", err, i)
		}
	}

	for i := range j.Secondary {
		if err := j.Secondary[i].validate(); err != nil {
			return fmt.Errorf("%w: secondary[%d]", err, i)
		}

		if j.Secondary[i].APIKeyEnv == "" {
			return fmt.Errorf("%w: secondary[%d]", ErrSecondaryMissingKeyEnv, i)
		}
	}

	return nil
}

func (cc *CandidateConfig) validate() error {
	if cc.Name == "" {
		return ErrCandidateMissingName
	}

	if cc.URL == "" {
		return ErrCandidateMissingURL
	}

	if _, err := models.ParseFormat(cc.Format); err != nil {
		return ErrCandidateInvalidFormat
	}

	return nil
}

func (rp *RetryPolicy) validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.MaxDelayMs < rp.InitialDelayMs {
		return ErrInvalidMaxDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if rp.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// DefaultRetryPolicy is three attempts with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		MaxDelayMs:        8000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        20,
	}
}

// GetEnabledJobs returns only enabled jobs.
func (c *Config) GetEnabledJobs() []JobConfig {
	var enabled []JobConfig

	for _, job := range c.Updater.Jobs {
		if job.Enabled {
			enabled = append(enabled, job)
		}
	}

	return enabled
}

// GetJob returns the named job.
func (c *Config) GetJob(name string) (JobConfig, bool) {
	for _, job := range c.Updater.Jobs {
		if job.Name == name {
			return job, true
		}
	}

	return JobConfig{}, false
}

// GetRetryDelay returns how long to wait after the given failed attempt
// (1-based): initial * multiplier^(attempt-1), capped at the max delay.
// The sequence is non-decreasing.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
		if delayMs >= float64(rp.MaxDelayMs) {
			break
		}
	}

	if delayMs > float64(rp.MaxDelayMs) {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetTimeout returns the wall-clock budget of the whole run.
func (j *JobConfig) GetTimeout() time.Duration {
	if j.TimeoutSec <= 0 {
		return DefaultJobTimeoutSec * time.Second
	}

	return time.Duration(j.TimeoutSec) * time.Second
}

// Location returns the job's calendar timezone, UTC if unknown.
func (j *JobConfig) Location() *time.Location {
	if j.Timezone == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(j.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// PrimaryCandidates converts the enabled candidates into their runtime form.
func (j *JobConfig) PrimaryCandidates() []models.SourceCandidate {
	out := make([]models.SourceCandidate, 0, len(j.Candidates))

	for _, cc := range j.Candidates {
		if cc.Disabled {
			continue
		}

		out = append(out, cc.toCandidate(""))
	}

	return out
}

// SecondaryCandidates returns the keyed providers whose credential is
// present in the environment. A missing key removes the candidate.
func (j *JobConfig) SecondaryCandidates() []models.SourceCandidate {
	var out []models.SourceCandidate

	for _, cc := range j.Secondary {
		if cc.Disabled {
			continue
		}

		key := strings.TrimSpace(os.Getenv(cc.APIKeyEnv))
		if key == "" {
			continue
		}

		out = append(out, cc.toCandidate(key))
	}

	return out
}

func (cc *CandidateConfig) toCandidate(apiKey string) models.SourceCandidate {
	format, _ := models.ParseFormat(cc.Format)

	headers := make(map[string]string, len(cc.Headers))
	for k, v := range cc.Headers {
		headers[k] = v
	}

	return models.SourceCandidate{
		Name:           cc.Name,
		URL:            utils.ExpandEnv(cc.URL),
		Format:         format,
		Headers:        headers,
		ItemPath:       cc.ItemPath,
		ItemKeys:       append([]string(nil), cc.ItemKeys...),
		ScriptID:       cc.ScriptID,
		Fields:         cc.Fields,
		APIKey:         apiKey,
		DateOffsetDays: cc.DateOffsetDays,
		CacheBust:      cc.CacheBust,
	}
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Jobs: %d, MaxAttempts: %d, Log: %s/%s}",
		len(c.Updater.Jobs),
		c.Updater.Retry.MaxAttempts,
		c.Updater.Logging.Level,
		c.Updater.Logging.Format,
	)
}
